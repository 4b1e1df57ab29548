package debug

import (
	"fmt"
	"reflect"
	"sort"
)

// deepCompare reports every difference between an expected and an actual
// object as one message per key, qualified by dot-path. Keys present only
// in expected are missing, keys present only in actual are unexpected,
// and nested maps recurse. Comparing an object to itself yields nil.
func deepCompare(expected, actual map[string]interface{}, path string) []string {
	var diffs []string

	for _, key := range sortedKeys(expected) {
		keyPath := joinPath(path, key)
		expectedVal := expected[key]

		actualVal, ok := actual[key]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("%s: missing from actual result", keyPath))
			continue
		}

		expectedMap, expectedIsMap := expectedVal.(map[string]interface{})
		actualMap, actualIsMap := actualVal.(map[string]interface{})
		if expectedIsMap && actualIsMap {
			diffs = append(diffs, deepCompare(expectedMap, actualMap, keyPath)...)
			continue
		}

		if !reflect.DeepEqual(expectedVal, actualVal) {
			diffs = append(diffs, fmt.Sprintf("%s: expected %v but got %v", keyPath, expectedVal, actualVal))
		}
	}

	for _, key := range sortedKeys(actual) {
		if _, ok := expected[key]; !ok {
			diffs = append(diffs, fmt.Sprintf("%s: unexpected in actual result", joinPath(path, key)))
		}
	}

	return diffs
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
