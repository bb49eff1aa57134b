// Package errors provides structured error types for wheelforge.
//
// Every failure a package resolution can produce carries a machine-readable
// [Code], so callers can tell terminal outcomes (package absent, no wheel,
// malformed metadata) apart from transient ones (network, rate limiting)
// and from build-time invariant violations (duplicate entry keys).
//
// Usage:
//
//	err := errors.New(errors.ErrCodeNoWheel, "no pure wheel for %s", name)
//	if errors.Is(err, errors.ErrCodeNoWheel) {
//	    // record as a terminal per-package failure
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the resolution and build taxonomy.
const (
	// Terminal per-package failures. These never consume retry budget.
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeNoWheel         Code = "NO_WHEEL"
	ErrCodeMalformed       Code = "MALFORMED_RESPONSE"

	// Transient failures, retried with backoff.
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Fatal to the whole run.
	ErrCodeDuplicateKey Code = "DUPLICATE_KEY"

	// Degraded-mode only, never fatal.
	ErrCodeMappingUnavailable Code = "MAPPING_UNAVAILABLE"

	// Input validation.
	ErrCodeInvalidInput Code = "INVALID_INPUT"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Terminal reports whether err is a per-package failure that should not be
// retried: the package or wheel does not exist, or the registry response
// could not be parsed.
func Terminal(err error) bool {
	switch GetCode(err) {
	case ErrCodePackageNotFound, ErrCodeNoWheel, ErrCodeMalformed:
		return true
	}
	return false
}
