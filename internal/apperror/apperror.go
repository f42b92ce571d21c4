// Package apperror defines the error kinds the service layer reports and the
// handlers translate to HTTP status codes.
//
// Every error that crosses a layer boundary is an *AppError wrapping one of the
// sentinel kinds below. Handlers use errors.Is to pick the status code and
// errors.As to extract the human-readable message, so storage and business
// details never leak into responses.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

type AppError struct {
	Err     error  // sentinel kind (ErrNotFound, ErrValidation, ...)
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation. Races that slip past the service
// layer's pre-checks end up here too, translated from storage constraint
// errors by the sqlite package.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// IsConflict reports whether err is (or wraps) a conflict. Used by seeding,
// which treats already-present reference rows as success.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
