package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidBody indicates a body with a non-positive or non-finite size or mass.
	ErrInvalidBody = errors.New("dynamo: invalid body (size and mass must be positive and finite)")

	// ErrInvalidArena indicates an arena whose playable region is empty.
	ErrInvalidArena = errors.New("dynamo: invalid arena (playable region must be positive)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidConfig indicates a configuration that cannot drive a simulation.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrInvalidState indicates a body whose state became NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// SimulationError wraps an error with the tick it was detected on.
type SimulationError struct {
	Tick    uint64
	Body    BodyID
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("tick %d (body %d): %v", e.Tick, e.Body, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
