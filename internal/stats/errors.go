package stats

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every engine component. Callers match with errors.Is.
var (
	// ErrInsufficientData marks a normal "need more data" outcome, not a fault.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidInput marks input rejected at the boundary before any work starts.
	ErrInvalidInput = errors.New("invalid input")
)

// InsufficientDataError carries how much data was available versus required.
type InsufficientDataError struct {
	Component string `json:"component"`
	Have      int    `json:"have"`
	Need      int    `json:"need"`
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %s (have %d, need %d)", e.Component, ErrInsufficientData, e.Have, e.Need)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// Invalid builds an ErrInvalidInput-wrapping error.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
