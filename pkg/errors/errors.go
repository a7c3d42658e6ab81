// Package errors provides structured error types for backdrop.
//
// Errors carry a machine-readable [Code] so the CLI and the HTTP server can
// map failures to exit messages and status codes without string matching.
//
// # Error Codes
//
//   - INVALID_*: the request or its inputs were rejected
//   - UNKNOWN_*: an id did not resolve in the catalog
//   - IMAGE_*: a screenshot could not be fetched or decoded
//   - ENCODE, CACHE, INTERNAL: failures on our side
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownPattern, "unknown pattern %q", id)
//	if errors.Is(err, errors.ErrCodeUnknownPattern) {
//	    // list the available patterns
//	}
//
//	err = errors.Wrap(errors.ErrCodeImageFetch, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidURL   Code = "INVALID_URL"
	ErrCodeInvalidPath  Code = "INVALID_PATH"
	ErrCodeInvalidID    Code = "INVALID_ID"

	// Catalog lookups
	ErrCodeUnknownPattern Code = "UNKNOWN_PATTERN"
	ErrCodeUnknownFormat  Code = "UNKNOWN_FORMAT"

	// Screenshot sources
	ErrCodeImageFetch  Code = "IMAGE_FETCH"
	ErrCodeImageDecode Code = "IMAGE_DECODE"
	ErrCodeTooLarge    Code = "TOO_LARGE"

	// Internal errors
	ErrCodeEncode   Code = "ENCODE"
	ErrCodeCache    Code = "CACHE"
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// HTTPStatus maps an error to the status code the server responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidURL, ErrCodeInvalidPath, ErrCodeInvalidID,
		ErrCodeUnknownPattern, ErrCodeUnknownFormat, ErrCodeImageDecode:
		return http.StatusBadRequest
	case ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeImageFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
