// Package testutil provides fakes and assertions shared by the bridge's tests.
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// RequireSuccess fails the test unless out is a success and returns its value.
func RequireSuccess(t *testing.T, out entities.Outcome) any {
	t.Helper()
	require.Equal(t, entities.OutcomeSuccess, out.Status, "outcome error: %v", out.Error)
	return out.Value
}

// AssertFailure asserts that out is an error outcome of the given type.
func AssertFailure(t *testing.T, out entities.Outcome, errorType string, msgAndArgs ...interface{}) {
	t.Helper()
	require.Equal(t, entities.OutcomeError, out.Status, msgAndArgs...)
	require.NotNil(t, out.Error, msgAndArgs...)
	assert.Equal(t, errorType, out.Error.Type, msgAndArgs...)
}

// AssertNotImplemented asserts the soft not-implemented outcome.
func AssertNotImplemented(t *testing.T, out entities.Outcome, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, entities.OutcomeNotImplemented, out.Status, msgAndArgs...)
	assert.Nil(t, out.Error, msgAndArgs...)
}

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}
