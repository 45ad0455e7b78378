package util

import "sort"

// SortedUniqueStrings returns the distinct non-empty values of s in ascending
// order, leaving out any value listed in exclude. Returns an empty, non-nil
// slice when nothing remains.
func SortedUniqueStrings(s []string, exclude ...string) []string {
	skip := make(map[string]struct{}, len(exclude)+len(s))
	for _, v := range exclude {
		skip[v] = struct{}{}
	}
	result := make([]string, 0, len(s))
	for _, v := range s {
		if v == "" {
			continue
		}
		if _, exists := skip[v]; !exists {
			skip[v] = struct{}{}
			result = append(result, v)
		}
	}
	sort.Strings(result)
	return result
}
