// Package apperr defines the error taxonomy shared by services and handlers.
// Services return *Error values; the HTTP error handler maps the Kind to a
// status code and never forwards the wrapped cause to clients.
package apperr

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "dependency_unavailable"
	default:
		return "internal"
	}
}

// GenericCredentialsMessage is the only message ever reported for failed authentication.
const GenericCredentialsMessage = "invalid credentials"

// Error is the application error value.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds field-level validation messages keyed by JSON field name.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

/* =============================== Builders =============================== */

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// BadRequest is a validation error without field detail (e.g. a path/body mismatch).
func BadRequest(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// Invalid reports a single field-level validation failure.
func Invalid(field, msg string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "Validation failed",
		Fields:  map[string][]string{field: {msg}},
	}
}

// Fields wraps a validator output map.
func Fields(errs map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: errs}
}

// Unauthorized always carries the generic credentials message.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: GenericCredentialsMessage}
}

func Unavailable(msg string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: cause}
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal Server Error", Err: cause}
}

/* =============================== Helpers ================================ */

// KindOf returns the Kind of err, treating unknown errors as internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// FromDB translates storage errors. Record-not-found becomes NotFound with
// notFoundMsg, a duplicate key becomes Conflict with conflictMsg, anything
// else is Internal. A nil error stays nil.
func FromDB(err error, notFoundMsg, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(notFoundMsg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict(conflictMsg)
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
