// Package domainerrors provides coded errors for the service layer.
//
// Stores and infrastructure return sentinel errors (pkg/platform/sentinel);
// services translate them into coded errors so transports can map codes to
// status codes without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks rejected input: inverted salary bounds, malformed
	// dates, missing mandatory fields.
	CodeValidation Code = "validation"
	// CodeReference marks a failed reference resolution: unknown client,
	// profile, country, region or city. Fatal for the record it belongs to.
	CodeReference Code = "reference"
	// CodeNotFound marks a missing entity on a direct lookup.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness conflict that was not resolvable.
	CodeConflict Code = "conflict"
	// CodeInvalidInput marks malformed request-level input (query scope,
	// filters, date ranges).
	CodeInvalidInput Code = "invalid_input"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error carries a code, a human-readable message, and an optional cause.
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

// New constructs a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
