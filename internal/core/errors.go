package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate    = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrEmptyTitle     = errors.New("empty title")
	ErrTitleTooLong   = errors.New("text too long (max 200 characters)")
	ErrEmptyVendor    = errors.New("empty vendor")
	ErrEmptyDueDate   = errors.New("empty due date")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrNotFound       = errors.New("not found")
	ErrDuplicate      = errors.New("already exists")
)

// ValidationError blocks an action before anything is written.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreError reports a failure of the backing store during Op.
type StoreError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
