package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreError_MatchesUnavailable(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk I/O error")
	err := NewStoreError("sqlite", "get_binding", cause)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "sqlite get_binding: disk I/O error", err.Error())

	wrapped := fmt.Errorf("ensure binding: %w", err)
	assert.ErrorIs(t, wrapped, ErrStoreUnavailable)

	var se *StoreError
	assert.True(t, errors.As(wrapped, &se))
	assert.Equal(t, "get_binding", se.Op)
}

func TestStoreError_NilCause(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewStoreError("sqlite", "ping", nil))

	err := &StoreError{Backend: "unavailable", Op: "ping"}
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "store unavailable")
}

func TestStoreError_DoesNotMatchOtherSentinels(t *testing.T) {
	t.Parallel()
	err := NewStoreError("mongo", "find", errors.New("boom"))
	assert.NotErrorIs(t, err, ErrAccountNotFound)
	assert.NotErrorIs(t, err, ErrReminderNotFound)
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	err := NewValidationError("lineUserId", "required")
	assert.Equal(t, "validation failed on lineUserId: required", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
}
