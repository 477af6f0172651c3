package task

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the task does not exist or is no longer active.
	ErrNotFound = errors.New("task not found")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

var (
	ErrNameRequired   = NewValidationError("Missing required field: name")
	ErrIDRequired     = NewValidationError("Missing id")
	ErrNoFields       = NewValidationError("No fields provided for update")
	ErrInvalidDueDate = NewValidationError("Invalid due_date: expected RFC 3339 or YYYY-MM-DD HH:MM:SS")
)

// ValidationError describes input the store refused to accept.
// Its message is safe to return to clients.
type ValidationError struct {
	Message string
}

// NewValidationError creates a validation error with a client-facing message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) true for any validation error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError wraps a failure of the underlying database.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err originated in the task store.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
