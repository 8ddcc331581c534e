// Package apperror defines the domain errors shared by the service and HTTP layers.
//
// Every error the application reasons about wraps one of the sentinels below, so callers
// branch with errors.Is and never inspect messages:
//
//	ErrValidation   → a form was filled in wrong (e.g. passwords don't match)
//	ErrUnauthorized → local credentials were rejected
//	ErrConflict     → the username is already registered
//	ErrNotFound     → the store has no matching user
//
// Anything else that reaches a handler is a store failure.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, key),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, key),
	}
}

// Unauthorized returns an AppError for rejected credentials.
// The message is deliberately the same for unknown users and wrong passwords.
func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "invalid username or password",
	}
}
