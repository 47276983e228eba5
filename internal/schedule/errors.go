package schedule

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a request failure so the API boundary can pick the
// right HTTP status and the right message for the voice assistant to speak.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindPolicy        ErrorKind = "policy"
	KindConflict      ErrorKind = "conflict"
	KindUnavailable   ErrorKind = "unavailable"
	KindConfiguration ErrorKind = "configuration"
)

// Error is a kinded request failure. Message is safe to surface to the
// caller; the wrapped cause is for logs only.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewPolicyViolation(reason string) *Error {
	return &Error{Kind: KindPolicy, Message: reason}
}

func NewSlotConflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewDependencyUnavailable(cause error) *Error {
	return &Error{
		Kind:    KindUnavailable,
		Message: "we're having trouble reaching our scheduling system, please try again in a moment",
		cause:   cause,
	}
}

func NewConfigurationFault(cause error) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: "an internal error occurred",
		cause:   cause,
	}
}

// KindOf extracts the kind of err, or KindConfiguration for anything that
// escaped classification (nothing internal may leak to the caller raw).
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindConfiguration
}

// UserMessage returns the caller-safe message for err.
func UserMessage(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return "an internal error occurred"
}
