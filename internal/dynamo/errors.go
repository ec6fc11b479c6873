package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates positions or velocities became NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidCount indicates a non-positive particle count.
	ErrInvalidCount = errors.New("dynamo: particle count must be positive")

	// ErrUnknownMode indicates a mode other than temperature or mass.
	ErrUnknownMode = errors.New("dynamo: unknown simulation mode")

	// ErrNotInitialized indicates velocities were never sampled.
	ErrNotInitialized = errors.New("dynamo: ensemble velocities not sampled")

	// ErrNilSource indicates a missing random source.
	ErrNilSource = errors.New("dynamo: nil random source")
)

// ParamError reports which parameter violated its bounds.
type ParamError struct {
	Name  string
	Value float64
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s=%g", ErrParameterBounds.Error(), e.Name, e.Value)
}

func (e *ParamError) Unwrap() error {
	return ErrParameterBounds
}

// SimError wraps a failure detected while running frames.
type SimError struct {
	Frame   int
	Time    float64
	Message string
	Wrapped error
}

func (e SimError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %s", e.Frame, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return e.Wrapped
}
