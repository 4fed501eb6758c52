// File: api/errors.go
// Package api defines shared types and error handling for the SPS core.
// License: Apache-2.0

package api

import "fmt"

// Common errors used across the module.
var (
	ErrNotInitialised   = fmt.Errorf("module not initialised")
	ErrInvalidParameter = fmt.Errorf("invalid parameter")
	ErrInvalidMode      = fmt.Errorf("operation not valid in current link mode")
	ErrAllocation       = fmt.Errorf("allocation failed")
	ErrBufferFull       = fmt.Errorf("buffer full")
	ErrNotImplemented   = fmt.Errorf("operation not implemented")
)

// ErrorCode represents specific error conditions in the module.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeNotInitialised
	ErrCodeInvalidParameter
	ErrCodeInvalidMode
	ErrCodeAllocation
	ErrCodeBufferFull
	ErrCodeNotImplemented
)

// sentinel maps each code to its sentinel error.
var sentinel = map[ErrorCode]error{
	ErrCodeNotInitialised:   ErrNotInitialised,
	ErrCodeInvalidParameter: ErrInvalidParameter,
	ErrCodeInvalidMode:      ErrInvalidMode,
	ErrCodeAllocation:       ErrAllocation,
	ErrCodeBufferFull:       ErrBufferFull,
	ErrCodeNotImplemented:   ErrNotImplemented,
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Is reports whether target is the sentinel for this error's code,
// so errors.Is works against the Err* values above.
func (e *Error) Is(target error) bool {
	return sentinel[e.Code] == target
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
