package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeNestedString(t *testing.T) {
	obj := map[string]interface{}{
		"status": map[string]interface{}{
			"phase": "Running",
		},
	}

	assert.Equal(t, "Running", SafeNestedString(obj, "status", "phase"))
	assert.Equal(t, "", SafeNestedString(obj, "status", "reason"))
	assert.Equal(t, "", SafeNestedString(obj, "spec", "phase"))
	assert.Equal(t, "", SafeNestedString(nil, "any"))
}

func TestSafeNestedInt64(t *testing.T) {
	obj := map[string]interface{}{
		"status": map[string]interface{}{
			"desiredNumberScheduled": int64(3),
			"numberReady":            float64(2),
			"fraction":               1.5,
			"name":                   "x",
		},
	}

	assert.Equal(t, int64(3), SafeNestedInt64(obj, "status", "desiredNumberScheduled"))
	assert.Equal(t, int64(2), SafeNestedInt64(obj, "status", "numberReady"))
	assert.Equal(t, int64(0), SafeNestedInt64(obj, "status", "fraction"))
	assert.Equal(t, int64(0), SafeNestedInt64(obj, "status", "name"))
	assert.Equal(t, int64(0), SafeNestedInt64(obj, "status", "missing"))
	assert.Equal(t, int64(0), SafeNestedInt64(nil, "any"))
}

func TestSafeNestedMap_Copies(t *testing.T) {
	obj := map[string]interface{}{
		"metadata": map[string]interface{}{
			"labels": map[string]interface{}{"app": "worker"},
		},
	}

	result := SafeNestedMap(obj, "metadata", "labels")
	require.NotNil(t, result)
	assert.Equal(t, "worker", result["app"])

	result["app"] = "changed"
	assert.Equal(t, "worker", SafeNestedString(obj, "metadata", "labels", "app"), "input must not be mutated")

	assert.Nil(t, SafeNestedMap(obj, "metadata", "annotations"))
	assert.Nil(t, SafeNestedMap(nil, "any"))
}

func TestSafeNestedSlice(t *testing.T) {
	obj := map[string]interface{}{
		"spec": map[string]interface{}{
			"containers": []interface{}{
				map[string]interface{}{"name": "main"},
				"not-an-object",
				map[string]interface{}{"name": "sidecar"},
			},
		},
	}

	result := SafeNestedSlice(obj, "spec", "containers")
	require.Len(t, result, 3)
	assert.Nil(t, SafeNestedSlice(obj, "spec", "initContainers"))
	assert.Nil(t, SafeNestedSlice(nil, "any"))

	items := MapItems(result)
	require.Len(t, items, 2)
	assert.Equal(t, "main", items[0]["name"])
	assert.Equal(t, "sidecar", items[1]["name"])
	assert.Empty(t, MapItems(nil))
}

func TestSafeStringFromMap(t *testing.T) {
	m := map[string]interface{}{
		"type":   "Complete",
		"status": true,
	}

	assert.Equal(t, "Complete", SafeStringFromMap(m, "type"))
	assert.Equal(t, "", SafeStringFromMap(m, "status"))
	assert.Equal(t, "", SafeStringFromMap(m, "missing"))
	assert.Equal(t, "", SafeStringFromMap(nil, "any"))
}
