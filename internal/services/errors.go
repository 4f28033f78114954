package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reliefhub/relief-server/internal/store"
)

var (
	// ErrForbidden is returned when the actor lacks the role or ownership an operation requires.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write lost a race with another update.
	// Callers should re-read and retry once.
	ErrConflict = errors.New("record was modified by another request")
	// ErrTaskUnavailable is returned when a sign-up finds the task no longer open.
	ErrTaskUnavailable = errors.New("task is not available for sign-up")
	// ErrTaskNotAssignable is returned when a completion comes from neither the assignee nor an admin.
	ErrTaskNotAssignable = errors.New("task is not assigned to this actor")
	// ErrInvalidCredentials is returned on failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email is already registered")
)

// FieldError describes one violated field constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists the field constraints an input violated.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// storeErr maps store sentinels onto service errors and wraps the rest.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrConflict
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
