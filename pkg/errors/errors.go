// Package errors provides structured error types for visualtest.
//
// Every failure that can stop a style from being evaluated carries a
// machine-readable [Code]. The runner uses the code to decide how far a
// failure travels:
//
//   - DATASOURCE_UNAVAILABLE: the style is skipped, nothing is reported
//   - PARSE_ERROR, RENDER_CONFIG, STYLE_LOAD: the style is aborted and the
//     worker turns the error into a single ERROR result for that file
//   - INVALID_*, NOT_FOUND: environment and input problems surfaced to the CLI
//
// # Usage
//
//	err := errors.New(errors.ErrCodeRenderConfig, "cannot render zero tiles")
//	if errors.Is(err, errors.ErrCodeRenderConfig) {
//	    // Handle invalid matrix entry
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStyleLoad, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Style evaluation errors
	ErrCodeParse                 Code = "PARSE_ERROR"
	ErrCodeDatasourceUnavailable Code = "DATASOURCE_UNAVAILABLE"
	ErrCodeRenderConfig          Code = "RENDER_CONFIG"
	ErrCodeStyleLoad             Code = "STYLE_LOAD"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// The outermost *Error in the chain decides.
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
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// Unavailable is shorthand for a DATASOURCE_UNAVAILABLE error.
func Unavailable(cause error, format string, args ...any) *Error {
	return Wrap(ErrCodeDatasourceUnavailable, cause, format, args...)
}

// IsUnavailable reports whether err means a style's data source could not
// be reached. Such styles are skipped rather than failed.
func IsUnavailable(err error) bool {
	return Is(err, ErrCodeDatasourceUnavailable)
}

// As is [errors.As] from the standard library, re-exported so callers that
// import this package need not alias either one.
func As(err error, target any) bool {
	return errors.As(err, target)
}
