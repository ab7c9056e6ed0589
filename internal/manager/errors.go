package manager

import (
	"errors"
	"fmt"
)

// ErrorCode classifies manager failures.
type ErrorCode int

const (
	// CodeUnknown represents an unclassified error.
	CodeUnknown ErrorCode = iota

	// CodeConfiguration represents an invalid configuration, rejected
	// before any kernel call or registry mutation.
	CodeConfiguration

	// CodeCapacity represents spawn admission failure: agent pool full
	// or memory budget exceeded.
	CodeCapacity

	// CodeNotFound represents an operation referencing an unknown agent.
	CodeNotFound

	// CodeStateConflict represents an operation incompatible with the
	// agent's current state.
	CodeStateConflict

	// CodeTimeout represents an inference deadline being exceeded.
	CodeTimeout

	// CodeFeatureDisabled represents knowledge sharing attempted while
	// cross-learning is disabled.
	CodeFeatureDisabled

	// CodeKernel represents an opaque failure surfaced from the compute
	// kernel.
	CodeKernel
)

func (c ErrorCode) String() string {
	switch c {
	case CodeConfiguration:
		return "configuration"
	case CodeCapacity:
		return "capacity"
	case CodeNotFound:
		return "not_found"
	case CodeStateConflict:
		return "state_conflict"
	case CodeTimeout:
		return "timeout"
	case CodeFeatureDisabled:
		return "feature_disabled"
	case CodeKernel:
		return "kernel"
	default:
		return "unknown"
	}
}

// Error is the coded error type returned by every manager operation.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
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

// Is matches errors by code so callers can test against a code probe.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// Errorf builds a coded error from a format string.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the error code, or CodeUnknown for foreign errors.
func CodeOf(err error) ErrorCode {
	var managed *Error
	if errors.As(err, &managed) {
		return managed.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
