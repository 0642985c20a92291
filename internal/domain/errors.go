package domain

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes data layer errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a referenced id is absent from the in-memory set.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodePersistence indicates the persistence provider rejected an operation.
	ErrCodePersistence ErrorCode = "PERSISTENCE_FAILURE"

	// ErrCodeValidation indicates malformed input.
	ErrCodeValidation ErrorCode = "VALIDATION"
)

// Error is the single error type raised by the data layer.
type Error struct {
	Code    ErrorCode
	Message string

	// Entity and ID identify the record involved, when there is one.
	Entity string
	ID     string

	// Err is the underlying cause (provider error, parse error).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Entity != "" && e.ID != "" {
		msg = fmt.Sprintf("%s (%s=%s)", msg, e.Entity, e.ID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound creates a NOT_FOUND error for an entity id.
func NotFound(entity, id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: entity + " not found",
		Entity:  entity,
		ID:      id,
	}
}

// Persistence wraps a provider error. op names the failed operation.
func Persistence(op string, err error) *Error {
	return &Error{
		Code:    ErrCodePersistence,
		Message: op + " failed",
		Err:     err,
	}
}

// Validationf creates a VALIDATION error.
func Validationf(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsPersistence reports whether err is a PERSISTENCE_FAILURE error.
func IsPersistence(err error) bool {
	return hasCode(err, ErrCodePersistence)
}

// IsValidation reports whether err is a VALIDATION error.
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func hasCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
