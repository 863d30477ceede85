package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindAuthentication Kind = "AUTHENTICATION"
	KindForbidden      Kind = "FORBIDDEN"
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindUnexpected     Kind = "UNEXPECTED"
)

// Error carries a kind alongside a message safe to show to API clients.
// Field is set for validation failures and names the offending input.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

func Validation(field, message string) error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func Authentication(message string) error {
	return &Error{Kind: KindAuthentication, Message: message}
}

func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func Unexpected(message string, cause error) error {
	return &Error{Kind: KindUnexpected, Message: message, Cause: cause}
}

// KindOf reports the kind of the first *Error in err's chain, or KindUnexpected.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// FieldOf returns the validation field carried by err, if any.
func FieldOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// PublicMessage is the text that may be returned to a client. Unexpected errors never
// leak their cause.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindUnexpected {
		return appErr.Message
	}
	return "an unexpected error occurred"
}
