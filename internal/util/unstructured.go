package util

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// SafeNestedString returns the string at the given field path, or "" if missing/wrong type.
func SafeNestedString(obj map[string]interface{}, fields ...string) string {
	if obj == nil {
		return ""
	}
	val, found, err := unstructured.NestedString(obj, fields...)
	if err != nil || !found {
		return ""
	}
	return val
}

// SafeNestedInt64 returns the integer at the given field path, or 0 if missing.
// Whole-number floats are accepted so objects decoded without int64
// conversion (plain encoding/json) read the same.
func SafeNestedInt64(obj map[string]interface{}, fields ...string) int64 {
	if obj == nil {
		return 0
	}
	val, found, err := unstructured.NestedFieldNoCopy(obj, fields...)
	if err != nil || !found {
		return 0
	}
	switch n := val.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		if n == float64(int64(n)) {
			return int64(n)
		}
	}
	return 0
}

// SafeNestedMap returns a deep copy of the nested map, or nil if missing.
func SafeNestedMap(obj map[string]interface{}, fields ...string) map[string]interface{} {
	if obj == nil {
		return nil
	}
	val, found, err := unstructured.NestedMap(obj, fields...)
	if err != nil || !found {
		return nil
	}
	return val
}

// SafeNestedSlice returns a deep copy of the nested slice, or nil if missing.
func SafeNestedSlice(obj map[string]interface{}, fields ...string) []interface{} {
	if obj == nil {
		return nil
	}
	val, found, err := unstructured.NestedSlice(obj, fields...)
	if err != nil || !found {
		return nil
	}
	return val
}

// MapItems returns the elements of a slice that are objects, skipping the rest.
// Use it for lists such as containers, env or conditions.
func MapItems(items []interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// SafeStringFromMap extracts a string value from a map by key.
// Returns "" if key is missing or value is not a string.
func SafeStringFromMap(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
