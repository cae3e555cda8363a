package sim

import (
	"errors"
	"fmt"
)

// ErrSimulation is the root of every failure in this package.
var ErrSimulation = errors.New("sim: simulation failed")

// Specific failure kinds, all wrapping ErrSimulation.
var (
	// ErrTimestep indicates dt is too large for the plant's fastest
	// time constant and integration would diverge.
	ErrTimestep = fmt.Errorf("%w: timestep too large", ErrSimulation)

	// ErrDiverged indicates a NaN/Inf state, integrator instability at
	// the chosen dt or gains.
	ErrDiverged = fmt.Errorf("%w: state diverged (NaN/Inf)", ErrSimulation)
)

// StepError wraps a failure with the step index and simulated time at
// which it occurred.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
