package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWithHint(t *testing.T) {
	err := WithHint(New("unknown evaluator"), "run 'corrsweep catalog'")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "run 'corrsweep catalog'", hints[0])
}

func TestStackTrace(t *testing.T) {
	err := Wrap(New("boom"), "context")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("run %s", "abc")

	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsInvalidRequestError(err))
	assert.Contains(t, err.Error(), "run abc")
}

func TestNewInvalidRequestError(t *testing.T) {
	err := NewInvalidRequestError("severity %d out of range", 9)

	assert.True(t, IsInvalidRequestError(err))
	assert.False(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), "severity 9 out of range")
}

func TestSentinelChecks_Nil(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsInvalidRequestError(nil))
	assert.False(t, IsCancelledError(nil))
}

func TestIsCancelledError(t *testing.T) {
	err := Wrap(ErrCancelled, "batch interrupted after 12 invocations")
	assert.True(t, IsCancelledError(err))
}
