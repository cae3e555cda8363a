package tuning

import (
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/poly"
)

// Search bounds for the critical-gain scan. The scan and bisection
// share one evaluation budget so the whole search is bounded even on
// pathological characteristic polynomials.
const (
	kpSearchMin = 1e-6
	kpSearchMax = 1e6
	maxEvals    = 400
	kpTolerance = 1e-9
)

// CriticalPoint finds the critical proportional gain Kcr at which the
// closed loop 1 + Kp*G(s) = 0 sits on the stability boundary, and the
// oscillation period Pcr there.
//
// The rightmost closed-loop pole real part is evaluated by direct root
// finding on D(s) + Kp*N(s). A geometric scan over Kp brackets the
// negative-to-non-negative transition and bisection refines it; the
// imaginary part of the crossing pole pair gives Pcr = 2*pi/|Im|.
func CriticalPoint(pm *plant.Model) (kcr, pcr float64, err error) {
	num := pm.Num()
	den := pm.Den()

	evals := 0
	rightmost := func(kp float64) (float64, []complex128, error) {
		evals++
		if evals > maxEvals {
			return 0, nil, fmt.Errorf("%w: critical-gain search exceeded %d evaluations", ErrTuning, maxEvals)
		}
		charPoly := poly.Add(den, num, kp)
		roots := poly.Roots(charPoly)
		if len(roots) == 0 {
			return 0, nil, fmt.Errorf("%w: closed-loop characteristic polynomial is constant", ErrTuning)
		}
		maxRe := math.Inf(-1)
		for _, r := range roots {
			if real(r) > maxRe {
				maxRe = real(r)
			}
		}
		return maxRe, roots, nil
	}

	// Geometric scan for a sign change of the rightmost real part.
	lo := kpSearchMin
	reLo, _, err := rightmost(lo)
	if err != nil {
		return 0, 0, err
	}
	if reLo >= 0 {
		return 0, 0, fmt.Errorf(
			"%w: closed loop already unstable at Kp=%g (no stable-to-unstable crossing)", ErrTuning, lo)
	}

	hi := lo
	found := false
	for hi < kpSearchMax {
		hi *= 2
		reHi, _, err := rightmost(hi)
		if err != nil {
			return 0, 0, err
		}
		if reHi >= 0 {
			found = true
			break
		}
		lo = hi
	}
	if !found {
		return 0, 0, fmt.Errorf(
			"%w: no right-half-plane crossing for Kp in [%g, %g]; plant appears unconditionally stable under proportional control",
			ErrTuning, kpSearchMin, kpSearchMax)
	}

	// Bisection on [lo, hi].
	for hi-lo > kpTolerance*(1+hi) {
		mid := 0.5 * (lo + hi)
		reMid, _, err := rightmost(mid)
		if err != nil {
			return 0, 0, err
		}
		if reMid < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	kcr = hi
	_, roots, err := rightmost(kcr)
	if err != nil {
		return 0, 0, err
	}

	// The crossing pair is the rightmost pole; its imaginary part sets
	// the oscillation frequency.
	var crossing complex128
	maxRe := math.Inf(-1)
	for _, r := range roots {
		if real(r) > maxRe {
			maxRe = real(r)
			crossing = r
		}
	}
	omega := math.Abs(imag(crossing))
	if omega < 1e-9 {
		return 0, 0, fmt.Errorf(
			"%w: instability sets in through a real pole (no sustained oscillation)", ErrTuning)
	}

	return kcr, 2 * math.Pi / omega, nil
}

// tuneOscillation applies the closed-loop Ziegler-Nichols table to the
// critical gain and period:
//
//	P:   Kp = 0.5*Kcr
//	PI:  Kp = 0.45*Kcr, Ti = Pcr/1.2
//	PID: Kp = 0.6*Kcr,  Ti = Pcr/2,  Td = Pcr/8
func tuneOscillation(pm *plant.Model, ct control.Type) (control.Gains, error) {
	kcr, pcr, err := CriticalPoint(pm)
	if err != nil {
		return control.Gains{}, err
	}

	g := control.Gains{Method: control.MethodZieglerNichols, Type: ct}
	switch ct {
	case control.TypeP:
		g.Kp = 0.5 * kcr
		g.Ti = math.Inf(1)
	case control.TypePI:
		g.Kp = 0.45 * kcr
		g.Ti = pcr / 1.2
	case control.TypePID:
		g.Kp = 0.6 * kcr
		g.Ti = pcr / 2
		g.Td = pcr / 8
	default:
		return control.Gains{}, fmt.Errorf("%w: unknown controller type %v", ErrTuning, ct)
	}

	if err := g.Validate(); err != nil {
		return control.Gains{}, fmt.Errorf("%w: %v", ErrTuning, err)
	}
	return g, nil
}
