// Package apperr defines the error taxonomy shared by the service layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrBusy       = errors.New("operation already in progress")

	// ErrEmptyRange is a precondition failure: nothing to work with in the requested range.
	ErrEmptyRange = fmt.Errorf("%w: no entries in range", ErrValidation)

	ErrServiceUnavailable = errors.New("ai service unavailable")
	ErrSchemaMismatch     = errors.New("ai response does not match schema")
)

// Validation wraps a descriptive message so that errors.Is(err, ErrValidation) holds.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// SynthesisError reports a failed report synthesis. Raw holds whatever the
// AI service returned (possibly empty) for diagnostics.
type SynthesisError struct {
	Raw string
	Err error
}

func (e *SynthesisError) Error() string {
	return "synthesis failed: " + e.Err.Error()
}

func (e *SynthesisError) Unwrap() error { return e.Err }
