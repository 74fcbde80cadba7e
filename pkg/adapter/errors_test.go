package adapter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"schema not found", NewSchemaNotFoundError("ks", "t"), ErrSchemaNotFound},
		{"introspection", NewIntrospectionError("ks", "t", errors.New("boom")), ErrIntrospection},
		{"validation", NewValidationError("age", "not an integer"), ErrValidation},
		{"validation list", ValidationErrors{NewValidationError("a", "bad")}, ErrValidation},
		{"missing key", NewMissingKeyError("delete", []string{"id"}), ErrMissingKey},
		{"full scan", NewFullScanError("ks", "t", []string{"id"}), ErrFullScanRequired},
		{"connection", NewConnectionError([]string{"127.0.0.1"}, 9042, errors.New("refused")), ErrConnectionFailed},
		{"execution", WrapExecutionError("SELECT 1", errors.New("syntax")), ErrExecutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.target))
			wrapped := fmt.Errorf("context: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.target))
		})
	}
}

func TestWrapExecutionError(t *testing.T) {
	assert.Nil(t, WrapExecutionError("x", nil))

	cause := errors.New("unavailable")
	err := WrapExecutionError("SELECT 1", cause)
	assert.True(t, errors.Is(err, cause))

	// no double wrapping
	assert.Same(t, err, WrapExecutionError("SELECT 2", err))

	connErr := NewConnectionError([]string{"h"}, 9042, cause)
	assert.Same(t, error(connErr), WrapExecutionError("SELECT 1", connErr))
	assert.False(t, errors.Is(connErr, ErrExecutionFailed))
}

func TestValidationDetails(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("plain")))

	single := NewValidationError("age", "out of range")
	assert.Equal(t, map[string]string{"age": "out of range"}, ValidationDetails(single))

	many := ValidationErrors{
		NewValidationError("a", "first"),
		NewValidationError("b", "second"),
		NewValidationError("a", "third"),
	}
	assert.Equal(t, map[string]string{"a": "first", "b": "second"}, ValidationDetails(many))
	assert.Contains(t, many.Error(), "a: first; b: second; a: third")
}

func TestValidationErrorsAsError(t *testing.T) {
	assert.NoError(t, ValidationErrors(nil).AsError())

	one := NewValidationError("a", "bad")
	assert.Same(t, error(one), ValidationErrors{one}.AsError())

	two := ValidationErrors{one, NewValidationError("b", "bad")}
	assert.True(t, IsValidationError(two.AsError()))
}
