package testkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code and shows the body on mismatch.
func AssertStatusCode(t *testing.T, s *Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] status code mismatch\nbody: %s", s.Name, body)
}

// AssertJSONBody compares the whole body, ignoring key order and whitespace.
func AssertJSONBody(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	assert.JSONEq(t, string(expected), string(actual), "[%s] response body mismatch", s.Name)
}

// AssertJSONFields checks only the given top-level keys of an object body.
func AssertJSONFields(t *testing.T, s *Scenario, expected map[string]json.RawMessage, actual []byte) {
	t.Helper()

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(actual, &got), "[%s] response is not a JSON object\nbody: %s", s.Name, actual)

	for key, want := range expected {
		have, ok := got[key]
		if !assert.True(t, ok, "[%s] response has no %q\nbody: %s", s.Name, key, actual) {
			continue
		}
		assert.JSONEq(t, string(want), string(have), "[%s] field %q mismatch", s.Name, key)
	}
}
