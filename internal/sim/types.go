package sim

import "math"

// State is the plant state vector in the canonical realization.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a SISO dynamical system x' = f(x, u, t).
type System interface {
	Derivative(x State, u float64, t float64) State
	Dim() int
}

// Integrator advances a system state by one fixed step.
type Integrator interface {
	Step(sys System, x State, u float64, t float64, dt float64) State
}

// Trajectory is the immutable record of one simulation run. Control is
// nil for open-loop runs. Time is strictly increasing with at least
// minSamples entries.
type Trajectory struct {
	Time      []float64
	Output    []float64
	Control   []float64
	Reference float64
}

// Samples returns the number of recorded points.
func (tr *Trajectory) Samples() int {
	return len(tr.Time)
}

// Config carries the caller-chosen simulation horizon and step.
type Config struct {
	Horizon float64
	Dt      float64
}
