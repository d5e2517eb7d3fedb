// Package errs classifies download failures.
//
// Codes are grouped by how the downloader reacts to them:
//   - Retryable (network, server status): retried by the page fetcher
//   - Fatal for a page (client status, malformed response, retries exhausted, page limit)
//   - Fatal for the run (planning, invalid parameter)
//   - Persistence failures
//
// Usage:
//
//	err := errs.Wrap(errs.CodeNetwork, "request trades page", cause)
//	if errs.Retryable(err) { ... }
package errs

import (
	"errors"
	"fmt"
)

// Code identifies the class of a failure.
type Code int

const (
	CodeUnknown Code = iota
	CodeInvalidParameter
	CodeNetwork
	CodeServerStatus
	CodeClientStatus
	CodeMalformedResponse
	CodeRetriesExhausted
	CodePageLimit
	CodePlanning
	CodePersist
)

var codeNames = map[Code]string{
	CodeUnknown:           "unknown",
	CodeInvalidParameter:  "invalid_parameter",
	CodeNetwork:           "network",
	CodeServerStatus:      "server_status",
	CodeClientStatus:      "client_status",
	CodeMalformedResponse: "malformed_response",
	CodeRetriesExhausted:  "retries_exhausted",
	CodePageLimit:         "page_limit",
	CodePlanning:          "planning",
	CodePersist:           "persist",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error is a failure tagged with a Code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Wrapf(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// GetCode returns the code of the outermost *Error in err's chain, or CodeUnknown.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether the outermost *Error in err's chain has code.
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}

// Retryable reports whether a failed request may succeed if repeated.
func Retryable(err error) bool {
	switch GetCode(err) {
	case CodeNetwork, CodeServerStatus:
		return true
	default:
		return false
	}
}
