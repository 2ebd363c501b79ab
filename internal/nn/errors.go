package nn

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	ErrShape     = errors.New("shape mismatch")
	ErrState     = errors.New("invalid state")
	ErrInvariant = errors.New("invariant violation")
)

// ShapeError reports an input whose length or shape does not match a
// stage's configuration, or geometrically invalid construction parameters.
type ShapeError struct {
	Op      string // Operation that rejected the input (e.g., "dense.forward")
	Details string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrShape, e.Details)
}

// Unwrap returns ErrShape.
func (e *ShapeError) Unwrap() error {
	return ErrShape
}

// StateError reports a backward pass without a matching forward pass.
type StateError struct {
	Op      string
	Details string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrState, e.Details)
}

// Unwrap returns ErrState.
func (e *StateError) Unwrap() error {
	return ErrState
}

// InvariantViolation reports a pipeline configuration that can never be
// valid, such as a network whose terminal output is not a flat vector.
type InvariantViolation struct {
	Op      string
	Details string
}

// Error implements the error interface.
func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrInvariant, e.Details)
}

// Unwrap returns ErrInvariant.
func (e *InvariantViolation) Unwrap() error {
	return ErrInvariant
}

func shapeErrorf(op, format string, args ...any) error {
	return &ShapeError{Op: op, Details: fmt.Sprintf(format, args...)}
}

func stateErrorf(op, format string, args ...any) error {
	return &StateError{Op: op, Details: fmt.Sprintf(format, args...)}
}

func invariantErrorf(op, format string, args ...any) error {
	return &InvariantViolation{Op: op, Details: fmt.Sprintf(format, args...)}
}
