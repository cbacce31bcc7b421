package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sonder-app/sonder-api/internal/db"
)

// ErrAccountExists indicates the username or email is already registered
type ErrAccountExists struct {
	Username string
	Email    string
}

func (e *ErrAccountExists) Error() string {
	return "username or email already registered"
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "incorrect username or password"
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrForbidden indicates the caller may not act on another user's resource
type ErrForbidden struct {
	Resource string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("not allowed to modify this %s", e.Resource)
}

// ErrNotFound names the missing resource
type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return e.Resource + " not found"
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Wrapped errors are unwrapped; db sentinels map onto their HTTP meaning.
func HTTPStatus(err error) int {
	var (
		exists    *ErrAccountExists
		creds     *ErrInvalidCredentials
		mismatch  *ErrPasswordMismatch
		invalid   *ErrValidation
		forbidden *ErrForbidden
		notFound  *ErrNotFound
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &exists):
		return http.StatusConflict
	case errors.As(err, &creds), errors.As(err, &mismatch):
		return http.StatusUnauthorized
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &notFound), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrAlreadyExists), errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, db.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text sent to clients. resource names what the
// handler was working on; internal failures are never echoed.
func publicMessage(err error, resource string) string {
	var (
		exists    *ErrAccountExists
		creds     *ErrInvalidCredentials
		mismatch  *ErrPasswordMismatch
		invalid   *ErrValidation
		forbidden *ErrForbidden
		notFound  *ErrNotFound
	)
	switch {
	case errors.As(err, &exists), errors.As(err, &creds), errors.As(err, &mismatch),
		errors.As(err, &invalid), errors.As(err, &forbidden), errors.As(err, &notFound):
		return err.Error()
	case errors.Is(err, db.ErrNotFound):
		return resource + " not found"
	case errors.Is(err, db.ErrAlreadyExists):
		return resource + " already exists"
	case errors.Is(err, db.ErrConflict):
		return "another prompt is already active"
	case errors.Is(err, db.ErrInvalid):
		return "invalid " + resource
	default:
		return "internal server error"
	}
}
