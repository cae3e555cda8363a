package control

import (
	"errors"
	"math"
)

// ErrNotRunning is returned by Step on a controller that has not been
// started or has been reset.
var ErrNotRunning = errors.New("control: controller not running")

type pidState int

const (
	stateIdle pidState = iota
	stateRunning
)

// Limits clamps the control signal to an actuator range. While the raw
// signal would saturate, integral accumulation is frozen (anti-windup).
type Limits struct {
	UMin float64
	UMax float64
}

// PID is a fixed-step discrete PID:
//
//	u = Kp*(e + acc/Ti + Td*(e - ePrev)/dt),  acc += e*dt
//
// It is a small state machine: Idle until Start, Running while
// stepping, back to Idle on Reset.
type PID struct {
	gains   Gains
	dt      float64
	limits  *Limits
	state   pidState
	acc     float64
	prevErr float64
	first   bool
}

// NewPID builds an Idle controller for the given gains and step size.
func NewPID(gains Gains, dt float64) *PID {
	return &PID{gains: gains, dt: dt, first: true}
}

// SetLimits enables output clamping and integral anti-windup.
func (p *PID) SetLimits(uMin, uMax float64) {
	p.limits = &Limits{UMin: uMin, UMax: uMax}
}

// Start moves the controller to Running.
func (p *PID) Start() {
	p.state = stateRunning
}

// Reset returns to Idle and clears the integral accumulator and the
// previous-error memory.
func (p *PID) Reset() {
	p.state = stateIdle
	p.acc = 0
	p.prevErr = 0
	p.first = true
}

// Step advances the controller one sample and returns the control
// signal. Only valid while Running.
func (p *PID) Step(err float64) (float64, error) {
	if p.state != stateRunning {
		return 0, ErrNotRunning
	}

	derivative := 0.0
	if !p.first && p.dt > 0 {
		derivative = (err - p.prevErr) / p.dt
	}

	integral := 0.0
	if p.gains.HasIntegral() {
		integral = (p.acc + err*p.dt) / p.gains.Ti
	}

	u := p.gains.Kp * (err + integral + p.gains.Td*derivative)

	saturated := false
	if p.limits != nil {
		if u > p.limits.UMax {
			u = p.limits.UMax
			saturated = true
		} else if u < p.limits.UMin {
			u = p.limits.UMin
			saturated = true
		}
	}

	// Integration is frozen for steps where the actuator saturates.
	if p.gains.HasIntegral() && !saturated {
		p.acc += err * p.dt
	}

	p.prevErr = err
	p.first = false

	if math.IsNaN(u) || math.IsInf(u, 0) {
		return u, errors.New("control: non-finite control signal")
	}
	return u, nil
}
