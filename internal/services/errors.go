package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/example/foodexpress/internal/utils"
)

// Error kinds. Every error returned by a service either wraps one of these
// or is an unexpected failure from the store.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUnverified         = errors.New("account not verified")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnverifiedAccount  = errors.New("account not verified")
	ErrExpired            = errors.New("verification code expired")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrBelowMinimumOrder  = errors.New("below minimum order")
	ErrAlreadyRated       = errors.New("already rated")
)

// Error is a classified failure carrying a client-facing message and,
// for validation and conflict errors, the offending field.
type Error struct {
	Kind    error
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

func validationError(err error) *Error {
	var fe *utils.FieldError
	if errors.As(err, &fe) {
		return &Error{Kind: ErrValidation, Field: fe.Field, Message: fe.Message}
	}
	return &Error{Kind: ErrValidation, Message: err.Error()}
}

// StatusCode maps an error to its HTTP status. Unclassified errors are 500.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrExpired),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrBelowMinimumOrder),
		errors.Is(err, ErrAlreadyRated):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrUnverified),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnverifiedAccount), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
