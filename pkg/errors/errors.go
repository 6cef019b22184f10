// Package errors provides structured error types for the graph engine.
//
// This package defines the error taxonomy shared by every component: the
// graph store, job registry, loader, algorithms, result writer, and the
// HTTP API. Every error returned across a component boundary is (or wraps)
// an *Error carrying one of the codes below, so the API layer can map it to
// a wire error code and HTTP status without inspecting message strings.
//
//	err := errors.New(errors.CodeInvalidInput, "unknown vertex collection %q", name)
//	if errors.Is(err, errors.CodeNotFound) {
//	    // handle missing graph/job
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeInUse            Code = "IN_USE"
	CodeAlgorithmError   Code = "ALGORITHM_ERROR"
	CodeLoadError        Code = "LOAD_ERROR"
	CodeStoreError       Code = "STORE_ERROR"
	CodeInterpreterError Code = "INTERPRETER_ERROR"
	CodeCancelled        Code = "CANCELLED"
	CodeInternal         Code = "INTERNAL"
)

// numericCode is the integer error_code value reported on the wire. Job
// terminal errors (algorithm/load/store/interpreter/cancelled) share the
// 200-status "job failed" envelope, but still carry a distinguishable
// numeric code so a caller can branch on it without string-matching
// error_message.
var numericCode = map[Code]int{
	CodeInvalidInput:     400,
	CodeUnauthorized:     401,
	CodeNotFound:         404,
	CodeInUse:            409,
	CodeAlgorithmError:   1001,
	CodeLoadError:        1002,
	CodeStoreError:       1003,
	CodeInterpreterError: 1004,
	CodeCancelled:        1005,
	CodeInternal:         500,
}

// httpStatus is the HTTP status a request-synchronous error maps to. Job
// terminal codes map to 200: the job resource itself reports failure in its
// body, the HTTP request that retrieves it succeeded.
var httpStatus = map[Code]int{
	CodeInvalidInput:     400,
	CodeUnauthorized:     401,
	CodeNotFound:         404,
	CodeInUse:            409,
	CodeAlgorithmError:   200,
	CodeLoadError:        200,
	CodeStoreError:       200,
	CodeInterpreterError: 200,
	CodeCancelled:        200,
	CodeInternal:         500,
}

// Error is a structured error carrying a Code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an *Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error wrapping an existing error, preserving it for errors.Is/As.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the code from err, or "" if err is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the human-readable message for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// NumericCode returns the wire error_code integer for err's Code.
// Unrecognized errors report CodeInternal's numeric code.
func NumericCode(err error) int {
	if n, ok := numericCode[GetCode(err)]; ok {
		return n
	}
	return numericCode[CodeInternal]
}

// HTTPStatus returns the HTTP status an error should be reported with.
// Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	if s, ok := httpStatus[GetCode(err)]; ok {
		return s
	}
	return httpStatus[CodeInternal]
}
