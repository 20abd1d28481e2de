// Package errors provides structured error types for crosssection.
//
// Every failure the chart pipeline can signal carries a machine-readable
// [Code] so that the CLI, the HTTP surface and library callers can branch on
// it without string matching:
//
//   - INVALID_*: Input validation failures (bad flags, bad documents)
//   - ALL_ZEROS, CONTAINER_TOO_SMALL: render gating (nothing to draw, surface unusable)
//   - DEGENERATE_SUBTREE: zero-sum subtree under the strict policy
//   - CHART_DESTROYED: lifecycle misuse
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f)
//	if errors.Is(err, errors.ErrCodeInvalidFormat) {
//	    // Handle validation error
//	}
//
// The render gating failures are also available as typed errors
// ([AllZerosError], [ContainerTooSmallError], [DegenerateSubtreeError]) for
// callers that want the attached detail:
//
//	var small *errors.ContainerTooSmallError
//	if stderrors.As(err, &small) {
//	    log.Printf("surface %vx%v too small", small.Width, small.Height)
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidStyle    Code = "INVALID_STYLE"
	ErrCodeInvalidVizType  Code = "INVALID_VIZ_TYPE"
	ErrCodeInvalidPolicy   Code = "INVALID_POLICY"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Render gating errors
	ErrCodeAllZeros          Code = "ALL_ZEROS"
	ErrCodeContainerTooSmall Code = "CONTAINER_TOO_SMALL"
	ErrCodeDegenerateSubtree Code = "DEGENERATE_SUBTREE"

	// Lifecycle errors
	ErrCodeChartDestroyed Code = "CHART_DESTROYED"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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

// coder is implemented by the typed errors in this package.
type coder interface {
	error
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a typed error with a
// matching code. The outermost coded error wins.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no coded error is found in the chain.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coder:
			return e.Code()
		}
		err = errors.Unwrap(err)
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

// AllZerosError is returned when no chart in a render has any slice to draw.
type AllZerosError struct {
	Charts int // Number of charts inspected
}

// Error implements the error interface.
func (e *AllZerosError) Error() string {
	return "nothing to draw: every chart has zero slices"
}

// Code returns the error code for this error type.
func (e *AllZerosError) Code() Code {
	return ErrCodeAllZeros
}

// ContainerTooSmallError is returned when the render surface cannot host
// readable geometry.
type ContainerTooSmallError struct {
	Width, Height float64 // Surface size that was rejected
	Min           float64 // Exclusive lower bound for both dimensions
}

// Error implements the error interface.
func (e *ContainerTooSmallError) Error() string {
	return fmt.Sprintf("container too small: %gx%g (both sides must exceed %g)", e.Width, e.Height, e.Min)
}

// Code returns the error code for this error type.
func (e *ContainerTooSmallError) Code() Code {
	return ErrCodeContainerTooSmall
}

// DegenerateSubtreeError is returned under the strict zero-sum policy when an
// internal node has children whose sizes sum to zero.
type DegenerateSubtreeError struct {
	Name     string // Name of the zero-sum parent
	Children int    // Number of zero-weight children
}

// Error implements the error interface.
func (e *DegenerateSubtreeError) Error() string {
	return fmt.Sprintf("degenerate subtree %q: %d children sum to zero", e.Name, e.Children)
}

// Code returns the error code for this error type.
func (e *DegenerateSubtreeError) Code() Code {
	return ErrCodeDegenerateSubtree
}
