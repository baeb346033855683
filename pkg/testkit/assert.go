package testkit

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code.
func AssertStatusCode(t *testing.T, s *Scenario, got int) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] HTTP status code mismatch", s.Name)
}

// AssertJSONSubset checks that every key in expected is present in actual
// with an equal value. Arrays must match element-wise. Extra keys in
// actual (ids, timestamps) are ignored.
func AssertJSONSubset(t *testing.T, name string, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	var expVal, actVal any
	require.NoError(t, json.Unmarshal(expected, &expVal), "[%s] expected body is not valid JSON", name)
	if !assert.NoError(t, json.Unmarshal(actual, &actVal), "[%s] actual body is not valid JSON\nbody: %s", name, actual) {
		return
	}
	for _, d := range subsetDiff("", expVal, actVal) {
		t.Errorf("[%s] %s", name, d)
	}
}

// AssertMocksAllCalled fails the test for every mock step never triggered.
func AssertMocksAllCalled(t *testing.T, s *Scenario, mt *MockTransport) {
	t.Helper()
	for _, err := range mt.AssertAllCalled() {
		assert.NoError(t, err, "[%s]", s.Name)
	}
}

func subsetDiff(path string, expected, actual any) []string {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected object, got %T", keyPath(path), actual)}
		}
		var diffs []string
		for k, ev := range exp {
			av, exists := act[k]
			if !exists {
				diffs = append(diffs, fmt.Sprintf("%s.%s: missing", keyPath(path), k))
				continue
			}
			diffs = append(diffs, subsetDiff(path+"."+k, ev, av)...)
		}
		return diffs
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected array, got %T", keyPath(path), actual)}
		}
		if len(exp) != len(act) {
			return []string{fmt.Sprintf("%s: array length expected=%d actual=%d", keyPath(path), len(exp), len(act))}
		}
		var diffs []string
		for i := range exp {
			diffs = append(diffs, subsetDiff(fmt.Sprintf("%s[%d]", path, i), exp[i], act[i])...)
		}
		return diffs
	default:
		if !assert.ObjectsAreEqual(expected, actual) {
			return []string{fmt.Sprintf("%s: expected %v, got %v", keyPath(path), expected, actual)}
		}
	}
	return nil
}

func keyPath(path string) string {
	if path == "" {
		return "root"
	}
	return path[1:]
}
