// Package fopdt reduces a plant to the three-parameter
// first-order-plus-dead-time approximation
//
//	G(s) = K * e^(-L*s) / (T*s + 1)
//
// that the classical tuning formulas consume. Identification runs
// either on a sampled step response (tangent/63.2% method) or
// algebraically on a transfer function.
package fopdt

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/sim"
)

// ErrIdentification indicates a usable FOPDT model cannot be derived.
var ErrIdentification = errors.New("fopdt: identification failed")

const (
	minSamples = 10

	// epsT floors a degenerate time-constant estimate; the model is
	// then flagged Degraded instead of rejected.
	epsT = 1e-6

	// deadTimeFraction of the total step that must be exceeded before
	// the response is considered to have started moving.
	deadTimeFraction = 0.01

	// riseFraction marks one time constant of a first-order response.
	riseFraction = 0.632

	// stepPoints is the resolution of the internal step simulation
	// used for higher-order models.
	stepPoints = 1000
)

// Model is an immutable FOPDT estimate. Degraded marks a model whose
// time constant was floored to epsT and should be treated as a rough
// approximation only.
type Model struct {
	K        float64
	L        float64
	T        float64
	Degraded bool
}

func (m Model) String() string {
	return fmt.Sprintf("FOPDT(K=%.4g, L=%.4g, T=%.4g)", m.K, m.L, m.T)
}

// Ratio returns L/T, the dead-time ratio the Cohen-Coon branch
// selection keys on.
func (m Model) Ratio() float64 {
	return m.L / m.T
}

// FromStepResponse fits K, L, T to a sampled step response driven by a
// constant input of magnitude reference.
//
// K is the final value over the input magnitude. L is the first
// timestamp at which the response has moved more than 1% of the total
// step away from its initial value (0 when it never does). T is the
// 63.2% crossing time minus L, floored to a small epsilon and flagged
// Degraded when the estimate comes out non-positive.
func FromStepResponse(time, response []float64, reference float64) (Model, error) {
	if len(response) < minSamples {
		return Model{}, fmt.Errorf("%w: response needs at least %d samples, got %d",
			ErrIdentification, minSamples, len(response))
	}
	if len(time) != len(response) {
		return Model{}, fmt.Errorf("%w: time and response lengths differ (%d vs %d)",
			ErrIdentification, len(time), len(response))
	}
	if reference == 0 {
		return Model{}, fmt.Errorf("%w: reference input must be nonzero", ErrIdentification)
	}
	for i := range response {
		if math.IsNaN(response[i]) || math.IsInf(response[i], 0) ||
			math.IsNaN(time[i]) || math.IsInf(time[i], 0) {
			return Model{}, fmt.Errorf("%w: non-finite sample at index %d", ErrIdentification, i)
		}
	}

	y0 := response[0]
	yFinal := response[len(response)-1]
	step := yFinal - y0
	if step == 0 {
		return Model{}, fmt.Errorf("%w: total step size is zero", ErrIdentification)
	}

	k := yFinal / reference

	// Dead time: first sample that has left the 1% band around y0.
	l := 0.0
	for i := range response {
		if math.Abs(response[i]-y0) > deadTimeFraction*math.Abs(step) {
			l = time[i]
			break
		}
	}

	// Time constant: 63.2% crossing relative to the step direction.
	target := y0 + riseFraction*step
	t63 := time[len(time)-1]
	for i := range response {
		if (step > 0 && response[i] >= target) || (step < 0 && response[i] <= target) {
			t63 = time[i]
			break
		}
	}

	tc := t63 - l
	degraded := false
	if tc <= 0 {
		tc = epsT
		degraded = true
	}

	return Model{K: k, L: l, T: tc, Degraded: degraded}, nil
}

// FromModel derives an FOPDT approximation from a transfer function.
// True first-order models resolve algebraically from the single real
// pole; higher-order stable models are step-simulated internally and
// fitted through FromStepResponse. Unstable models are rejected.
func FromModel(m *plant.Model) (Model, error) {
	if !m.IsStable() {
		return Model{}, fmt.Errorf("%w: model is unstable", ErrIdentification)
	}

	if m.Order() == 1 && len(m.Num()) == 1 {
		den := m.Den()
		k := m.Num()[0] / den[1]
		tc := den[0] / den[1]
		return Model{K: k, L: 0, T: tc}, nil
	}

	tauSlow, ok := m.SlowestTimeConstant()
	if !ok {
		return Model{}, fmt.Errorf("%w: cannot estimate a simulation horizon", ErrIdentification)
	}
	horizon := 8 * tauSlow
	dt := horizon / stepPoints
	if tauFast, ok := m.FastestTimeConstant(); ok && dt > tauFast/100 {
		dt = tauFast / 100
	}

	s := sim.New(m, integrators.NewRK4())
	tr, err := s.OpenLoop(1.0, sim.Config{Horizon: horizon, Dt: dt})
	if err != nil {
		return Model{}, fmt.Errorf("%w: step simulation: %v", ErrIdentification, err)
	}

	return FromStepResponse(tr.Time, tr.Output, 1.0)
}
