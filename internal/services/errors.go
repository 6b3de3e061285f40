package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by this package wraps exactly one of
// them, so callers branch with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrAlreadyMarked     = errors.New("already marked false")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Error carries a human-readable message alongside its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func invalidArgument(format string, args ...any) error {
	return newError(ErrInvalidArgument, format, args...)
}

func validationFailed(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

func conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

// Message returns the user-facing text for err, or "" when err is not one of ours.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
