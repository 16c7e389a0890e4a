// Package qwererr defines the structured error taxonomy shared by every
// qwer component. Each error carries a stable Code so callers can branch
// on kind with errors.Is instead of string matching.
package qwererr

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure. Codes are stable across releases and
// are suitable for tests and scripting against exit behavior.
type Code string

const (
	// Domain errors
	CodeVersionNotInstalled      Code = "VERSION_NOT_INSTALLED"
	CodeVersionAlreadyInstalled  Code = "VERSION_ALREADY_INSTALLED"
	CodeNoVersionsFound          Code = "NO_VERSIONS_FOUND"
	CodeNoMatchingVersionsFound  Code = "NO_MATCHING_VERSIONS_FOUND"

	// Plugin contract errors
	CodeScriptNotFound Code = "SCRIPT_NOT_FOUND"
	CodeScriptFailed   Code = "SCRIPT_FAILED"

	// Version-file errors
	CodeInvalidVersionEntry   Code = "INVALID_VERSION_ENTRY"
	CodeDuplicateVersionEntry Code = "DUPLICATE_VERSION_ENTRY"
	CodeNoVersionsFileFound   Code = "NO_VERSIONS_FILE_FOUND"
	CodeInvalidWorkdir        Code = "INVALID_WORKDIR"

	// Plugin registry errors
	CodeRegistryNotFound    Code = "REGISTRY_NOT_FOUND"
	CodeRegistryFileInvalid Code = "REGISTRY_FILE_INVALID"

	// Environment errors
	CodeIo          Code = "IO"
	CodeInvalidUtf8 Code = "INVALID_UTF8"

	// Usage errors, not part of spec.md's taxonomy but needed for the CLI
	// exit-code contract (spec.md §6: "2 for usage errors").
	CodeUsage Code = "USAGE"
)

// Error is a structured error with a stable Code, a human message, and
// optional structured details for logging.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is lets errors.Is match on Code alone, so callers can do
// errors.Is(err, &qwererr.Error{Code: qwererr.CodeVersionNotInstalled}).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Details: map[string]interface{}{}}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Details: map[string]interface{}{}}
}

// Wrap wraps an existing error with a Code and message. Returns nil if err
// is nil, so it is safe to use as `return qwererr.Wrap(err, ...)`.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Details: map[string]interface{}{}, Wrapped: err}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Details: map[string]interface{}{}, Wrapped: err}
}

// WithDetail attaches a structured detail and returns the receiver for
// chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the Code from err if it (or something it wraps) is an
// *Error, and ok=false otherwise.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// ExitCode maps an error to the process exit code described in spec.md §6:
// 0 on success (not handled here), 2 for usage errors, 1 for anything else
// surfaced to the top level.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := CodeOf(err); ok && code == CodeUsage {
		return 2
	}
	return 1
}
