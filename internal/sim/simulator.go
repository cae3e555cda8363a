// Package sim integrates a linear plant over time, either open loop
// under a constant input or closed loop under a discrete PID, and
// records the result as an immutable Trajectory.
package sim

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/plant"
)

// minSamples is the smallest trajectory the metrics layer accepts.
const minSamples = 10

// dtSafety bounds dt to a fraction of the fastest plant time constant.
// Explicit integration diverges well before dt reaches the time
// constant itself; /50 keeps RK4 comfortably inside its stability
// region for the gain ranges the tuners produce.
const dtSafety = 50.0

// Simulator binds a plant realization to an integration scheme.
type Simulator struct {
	model  *plant.Model
	ss     *StateSpace
	integ  Integrator
	limits *control.Limits
}

// New realizes the plant and prepares a simulator using the given
// integrator.
func New(m *plant.Model, integ Integrator) *Simulator {
	return &Simulator{model: m, ss: Realize(m), integ: integ}
}

// SetActuatorLimits forwards an actuator range to closed-loop
// controllers, enabling anti-windup.
func (s *Simulator) SetActuatorLimits(uMin, uMax float64) {
	s.limits = &control.Limits{UMin: uMin, UMax: uMax}
}

func (s *Simulator) validate(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrSimulation, cfg.Dt)
	}
	if cfg.Horizon <= 0 {
		return fmt.Errorf("%w: horizon must be positive, got %g", ErrSimulation, cfg.Horizon)
	}
	if int(cfg.Horizon/cfg.Dt)+1 < minSamples {
		return fmt.Errorf("%w: horizon/dt yields fewer than %d samples", ErrSimulation, minSamples)
	}
	if tau, ok := s.model.FastestTimeConstant(); ok && cfg.Dt > tau/dtSafety {
		return fmt.Errorf("%w: dt=%g exceeds %g (fastest time constant %g / %g); reduce dt",
			ErrTimestep, cfg.Dt, tau/dtSafety, tau, dtSafety)
	}
	return nil
}

// OpenLoop drives the plant with a constant input equal to reference
// from t=0 and returns the response trajectory.
func (s *Simulator) OpenLoop(reference float64, cfg Config) (*Trajectory, error) {
	if err := s.validate(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Horizon / cfg.Dt)
	tr := &Trajectory{
		Time:      make([]float64, 0, steps+1),
		Output:    make([]float64, 0, steps+1),
		Reference: reference,
	}

	x := make(State, s.ss.Dim())
	t := 0.0
	tr.Time = append(tr.Time, t)
	tr.Output = append(tr.Output, s.ss.Output(x, reference))

	for i := 0; i < steps; i++ {
		x = s.integ.Step(s.ss, x, reference, t, cfg.Dt)
		t += cfg.Dt

		if !x.IsValid() {
			return nil, &StepError{Step: i, Time: t, Wrapped: ErrDiverged}
		}

		tr.Time = append(tr.Time, t)
		tr.Output = append(tr.Output, s.ss.Output(x, reference))
	}

	return tr, nil
}

// ClosedLoop runs the reference-tracking loop: at each step the plant
// output is measured, the PID turns the error into a control signal,
// and the plant state advances under that signal. The returned
// trajectory includes the control sequence.
//
// Plants with direct feedthrough see the previous step's control signal
// in their output; resolving the algebraic loop exactly is not needed
// for the strictly proper models the tuners target.
func (s *Simulator) ClosedLoop(gains control.Gains, reference float64, cfg Config) (*Trajectory, error) {
	if err := gains.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSimulation, err)
	}
	if err := s.validate(cfg); err != nil {
		return nil, err
	}

	pid := control.NewPID(gains, cfg.Dt)
	if s.limits != nil {
		pid.SetLimits(s.limits.UMin, s.limits.UMax)
	}
	pid.Start()
	defer pid.Reset()

	steps := int(cfg.Horizon / cfg.Dt)
	tr := &Trajectory{
		Time:      make([]float64, 0, steps+1),
		Output:    make([]float64, 0, steps+1),
		Control:   make([]float64, 0, steps+1),
		Reference: reference,
	}

	x := make(State, s.ss.Dim())
	t := 0.0
	u := 0.0

	for i := 0; i <= steps; i++ {
		y := s.ss.Output(x, u)

		var err error
		u, err = pid.Step(reference - y)
		if err != nil {
			return nil, &StepError{Step: i, Time: t, Wrapped: fmt.Errorf("%w: %v", ErrDiverged, err)}
		}

		tr.Time = append(tr.Time, t)
		tr.Output = append(tr.Output, y)
		tr.Control = append(tr.Control, u)

		if i == steps {
			break
		}

		x = s.integ.Step(s.ss, x, u, t, cfg.Dt)
		t += cfg.Dt

		if !x.IsValid() {
			return nil, &StepError{Step: i, Time: t, Wrapped: ErrDiverged}
		}
	}

	return tr, nil
}
