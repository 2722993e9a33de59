// Package server provides the HTTP REST API for HR administration.
package server

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/jonathan/hr-admin/internal/contracts"
	"github.com/jonathan/hr-admin/internal/db"
	"github.com/jonathan/hr-admin/internal/onboarding"
	"github.com/jonathan/hr-admin/internal/recruitment"
	"github.com/jonathan/hr-admin/internal/resume"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
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
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a referenced record does not exist
type ErrNotFound struct {
	Kind string
	ID   uuid.UUID
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		emailExists *ErrEmailAlreadyExists
		badCreds    *ErrInvalidCredentials
		mismatch    *ErrPasswordMismatch
		noUser      *ErrUserNotFound
		notFound    *ErrNotFound
		invalid     *ErrValidation
		contractErr *contracts.ValidationError
	)
	switch {
	case errors.As(err, &emailExists),
		errors.Is(err, recruitment.ErrDuplicateEmail),
		errors.Is(err, db.ErrConflict),
		errors.Is(err, onboarding.ErrInvalidTransition):
		return http.StatusConflict
	case errors.As(err, &badCreds), errors.As(err, &mismatch):
		return http.StatusUnauthorized
	case errors.As(err, &noUser),
		errors.As(err, &notFound),
		errors.Is(err, db.ErrNotFound),
		errors.Is(err, recruitment.ErrNotFound),
		errors.Is(err, onboarding.ErrNotFound),
		errors.Is(err, onboarding.ErrChecklistItemNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalid), errors.Is(err, resume.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, resume.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &contractErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
