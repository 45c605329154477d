package models

import (
	"errors"
	"fmt"
)

// Domain specific errors. Handlers map these to the public error codes.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrDuplicate       = fmt.Errorf("%w: duplicate", ErrConflict)
	ErrDuplicateReview = fmt.Errorf("%w: user already reviewed this place", ErrConflict)
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")
	ErrDatabase        = errors.New("database error")
)

// ValidationError names the offending field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError is shorthand for a field-level validation failure.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// DatabaseError tags a storage failure with ErrDatabase while keeping the driver error in the chain.
func DatabaseError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrDatabase, err))
}
