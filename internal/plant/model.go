// Package plant models a SISO linear plant as a rational transfer
// function G(s) = N(s)/D(s) and exposes the pole/zero and stability
// queries the identification and tuning layers build on.
package plant

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/pidlab/internal/poly"
)

// stabilityTol guards against calling a pole sitting numerically on the
// imaginary axis stable. Marginal poles classify as unstable.
const stabilityTol = 1e-10

// Model is an immutable transfer function. Coefficients are highest
// degree first and are copied on construction, so a Model can be shared
// read-only between goroutines.
type Model struct {
	num []float64
	den []float64
}

// New validates the coefficient sequences and builds a Model.
// The numerator degree must not exceed the denominator degree; improper
// ratios have no state-space realization the simulator can integrate.
func New(numerator, denominator []float64) (*Model, error) {
	if len(numerator) == 0 {
		return nil, &ModelError{Param: "numerator", Reason: "empty coefficient sequence"}
	}
	if len(denominator) == 0 {
		return nil, &ModelError{Param: "denominator", Reason: "empty coefficient sequence"}
	}
	for _, v := range numerator {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ModelError{Param: "numerator", Reason: "non-finite coefficient"}
		}
	}
	for _, v := range denominator {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ModelError{Param: "denominator", Reason: "non-finite coefficient"}
		}
	}
	if poly.IsZero(denominator) {
		return nil, &ModelError{Param: "denominator", Reason: "identically zero"}
	}

	num := poly.Trim(numerator)
	den := poly.Trim(denominator)
	if len(num)-1 > len(den)-1 {
		return nil, &ModelError{Param: "numerator", Reason: "degree exceeds denominator (improper)"}
	}

	return &Model{num: num, den: den}, nil
}

// Num returns a copy of the numerator coefficients, highest degree first.
func (m *Model) Num() []float64 {
	out := make([]float64, len(m.num))
	copy(out, m.num)
	return out
}

// Den returns a copy of the denominator coefficients, highest degree first.
func (m *Model) Den() []float64 {
	out := make([]float64, len(m.den))
	copy(out, m.den)
	return out
}

// Order returns the denominator degree.
func (m *Model) Order() int {
	return len(m.den) - 1
}

// Poles returns the denominator roots.
func (m *Model) Poles() []complex128 {
	return poly.Roots(m.den)
}

// Zeros returns the numerator roots.
func (m *Model) Zeros() []complex128 {
	return poly.Roots(m.num)
}

// IsStable reports BIBO stability: every pole has strictly negative
// real part. Poles on the imaginary axis count as unstable.
func (m *Model) IsStable() bool {
	for _, p := range m.Poles() {
		if real(p) >= -stabilityTol {
			return false
		}
	}
	return true
}

// DCGain evaluates G(0) = N(0)/D(0).
func (m *Model) DCGain() (float64, error) {
	den0 := poly.Eval(m.den, 0)
	if math.Abs(den0) < 1e-15 {
		return 0, &ModelError{Param: "denominator", Reason: "zero at s=0, DC gain undefined"}
	}
	return poly.Eval(m.num, 0) / den0, nil
}

// Evaluate computes G(s) at a complex point. Evaluation at a pole is a
// removable-singularity case the caller must handle; it is rejected
// here rather than returning Inf.
func (m *Model) Evaluate(s complex128) (complex128, error) {
	den := poly.EvalC(m.den, s)
	if cmplx.Abs(den) == 0 {
		return 0, &ModelError{Param: "s", Reason: "evaluation point is a pole"}
	}
	return poly.EvalC(m.num, s) / den, nil
}

// SlowestTimeConstant returns 1/|Re(p)| for the pole closest to the
// imaginary axis among poles with nonzero real part, and ok=false when
// every pole sits on the axis.
func (m *Model) SlowestTimeConstant() (float64, bool) {
	minAbsRe := math.Inf(1)
	for _, p := range m.Poles() {
		re := math.Abs(real(p))
		if re > stabilityTol && re < minAbsRe {
			minAbsRe = re
		}
	}
	if math.IsInf(minAbsRe, 1) {
		return 0, false
	}
	return 1 / minAbsRe, true
}

// FastestTimeConstant returns 1/|Re(p)| for the pole farthest from the
// imaginary axis. The simulator uses it to bound the integration step.
func (m *Model) FastestTimeConstant() (float64, bool) {
	maxAbsRe := 0.0
	for _, p := range m.Poles() {
		re := math.Abs(real(p))
		if re > maxAbsRe {
			maxAbsRe = re
		}
	}
	if maxAbsRe <= stabilityTol {
		return 0, false
	}
	return 1 / maxAbsRe, true
}
