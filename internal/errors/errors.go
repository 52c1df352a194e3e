// Package errors defines the domain error taxonomy shared by the store,
// the reply handlers and the delivery adapter.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match them with errors.Is.
var (
	// ErrStoreUnavailable means the document store was never initialized
	// or a call against it failed.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrAccountNotFound means no app-side account references the chat identity yet.
	ErrAccountNotFound = errors.New("account not found")

	// ErrReminderNotFound means an action token targets a reminder that no longer exists.
	ErrReminderNotFound = errors.New("reminder not found")

	// ErrInvalidInput indicates a caller supplied malformed input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDeliveryFailed indicates the Messaging API rejected an outbound message.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// StoreError records which store operation failed. It matches
// ErrStoreUnavailable so callers only need one check.
type StoreError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, ErrStoreUnavailable)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports ErrStoreUnavailable as a match.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreError wraps a backend failure. Returns nil if err is nil.
func NewStoreError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Backend: backend, Op: op, Err: err}
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Is reports ErrInvalidInput as a match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
