// Package errors provides coded domain errors shared by services and transports.
//
// Services recover infrastructure sentinels into coded errors at their boundary;
// the HTTP layer maps codes to status lines in exactly one place. Codes are part
// of the API contract: read paths deliberately collapse "does not exist" and
// "exists but not yours" into CodeNotFound so responses never leak existence of
// private resources.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and recovery decisions.
type Code string

const (
	// CodeBadRequest marks malformed or invalid caller input.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks a write denied on a resource the caller may read.
	CodeForbidden Code = "forbidden"
	// CodeNotFound merges "absent" and "not visible to you". Lifecycle
	// transitions and read paths use it uniformly.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness violation or an invalid state transition.
	CodeConflict Code = "conflict"
	// CodeUnavailable marks a transient store/broker failure the caller may retry.
	CodeUnavailable Code = "unavailable"
	// CodeInvariantViolation marks a programming error: an impossible state was
	// observed. Logged loudly, never silently recovered.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal is the fallback for unclassified failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. A nil cause yields nil.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
