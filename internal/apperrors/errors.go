package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidTransition indicates a status change that is not legal from the current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConcurrentModification indicates that a write lost a race against another writer.
// Callers should re-fetch and retry instead of overwriting.
var ErrConcurrentModification = errors.New("resource was modified concurrently")

// ErrStoreUnavailable indicates a backend or network failure. The outcome of the
// operation is unknown to the caller and must be re-checked.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrConflict indicates the request conflicts with the current state of the resource.
var ErrConflict = errors.New("conflict")

// ErrForbidden indicates the actor is not allowed to perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code and a message alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// IsDefinitive reports whether err means the operation definitely did not take effect.
// StoreUnavailable (and unknown errors) mean the outcome must be re-checked.
func IsDefinitive(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrInternal):
		return false
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrConcurrentModification),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrUnauthorized):
		return true
	default:
		return false
	}
}
