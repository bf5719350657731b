// Package errors defines the error kinds surfaced by the sha256sum shell and
// maps them to process exit codes.
package errors

import (
	sterrors "errors"
	"fmt"
)

// ErrorCode classifies a shell failure.
type ErrorCode string

const (
	// ErrCodeUsage indicates bad or missing arguments. It is a normal help path.
	ErrCodeUsage ErrorCode = "USAGE"
	// ErrCodeFileOpen indicates the input path does not exist or is unreadable.
	ErrCodeFileOpen ErrorCode = "FILE_OPEN"
	// ErrCodeIO indicates a read failure in the middle of the stream.
	ErrCodeIO ErrorCode = "IO"
	// ErrCodeConfig indicates an invalid configuration file or value.
	ErrCodeConfig ErrorCode = "CONFIG"
	// ErrCodeInternal indicates a broken invariant, such as reusing a finalized
	// digest state.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError carries an error code, a human-readable message and the
// underlying cause.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a StructuredError with no cause.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{Code: code, Message: message}
}

// Wrap wraps cause with a code and message.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the outermost StructuredError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if sterrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsUsage reports whether err is a usage error.
func IsUsage(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeUsage
}

// ExitCode maps an error to a process exit code. Usage errors exit 0 because
// printing help is the expected outcome of a bad invocation.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch CodeOf(err) {
	case ErrCodeUsage:
		return 0
	case ErrCodeFileOpen:
		return 1
	case ErrCodeIO:
		return 2
	case ErrCodeConfig:
		return 3
	default:
		return 1
	}
}
