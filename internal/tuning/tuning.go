// Package tuning maps an FOPDT process model to PID controller gains
// using the classical Ziegler-Nichols and Cohen-Coon rules.
//
// The strategy set is a closed tagged variant: callers build a Strategy
// value (method kind plus its variant or optimality criterion) and pass
// it to the single Tune entry point.
package tuning

import (
	"errors"
	"fmt"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/fopdt"
	"github.com/san-kum/pidlab/internal/plant"
)

// ErrTuning indicates the requested formula does not apply to the
// given model or the critical-gain search failed.
var ErrTuning = errors.New("tuning: tuning failed")

// ErrDeadTimeDominant is the warning-grade Cohen-Coon rejection for
// L/T >= 1. Callers may detect it with errors.Is and accept a degraded
// result policy instead of aborting.
var ErrDeadTimeDominant = fmt.Errorf("%w: dead time dominates time constant (L/T >= 1)", ErrTuning)

// Kind selects the tuning family.
type Kind int

const (
	KindZieglerNichols Kind = iota
	KindCohenCoon
)

// Variant selects how Ziegler-Nichols obtains its inputs.
type Variant int

const (
	// ReactionCurve uses the FOPDT parameters directly.
	ReactionCurve Variant = iota
	// SustainedOscillation derives gains from the critical gain and
	// period of the proportional-only closed loop.
	SustainedOscillation
)

// Criterion selects the Cohen-Coon optimality table.
type Criterion int

const (
	IAE Criterion = iota
	ISE
	ITAE
)

func (c Criterion) String() string {
	switch c {
	case IAE:
		return "IAE"
	case ISE:
		return "ISE"
	case ITAE:
		return "ITAE"
	default:
		return "unknown"
	}
}

// ParseCriterion maps a CLI/config string to a Criterion.
func ParseCriterion(s string) (Criterion, error) {
	switch s {
	case "IAE", "iae":
		return IAE, nil
	case "ISE", "ise":
		return ISE, nil
	case "ITAE", "itae":
		return ITAE, nil
	default:
		return 0, fmt.Errorf("%w: unknown criterion %q", ErrTuning, s)
	}
}

// Strategy is the closed tagged variant over
// {ZieglerNichols(variant), CohenCoon(criterion)}.
type Strategy struct {
	Kind      Kind
	Variant   Variant      // Ziegler-Nichols only
	Criterion Criterion    // Cohen-Coon only
	Plant     *plant.Model // required for SustainedOscillation
}

// ZieglerNichols builds a reaction-curve Ziegler-Nichols strategy.
func ZieglerNichols() Strategy {
	return Strategy{Kind: KindZieglerNichols, Variant: ReactionCurve}
}

// ZieglerNicholsOscillation builds the sustained-oscillation variant,
// which searches the plant for its critical gain and period.
func ZieglerNicholsOscillation(pm *plant.Model) Strategy {
	return Strategy{Kind: KindZieglerNichols, Variant: SustainedOscillation, Plant: pm}
}

// CohenCoon builds a Cohen-Coon strategy under the given criterion.
func CohenCoon(c Criterion) Strategy {
	return Strategy{Kind: KindCohenCoon, Criterion: c}
}

// Tune is the single dispatch point for all strategies.
func Tune(s Strategy, m fopdt.Model, ct control.Type) (control.Gains, error) {
	switch s.Kind {
	case KindZieglerNichols:
		if s.Variant == SustainedOscillation {
			if s.Plant == nil {
				return control.Gains{}, fmt.Errorf("%w: oscillation variant requires a plant model", ErrTuning)
			}
			return tuneOscillation(s.Plant, ct)
		}
		return tuneReactionCurve(m, ct)
	case KindCohenCoon:
		return tuneCohenCoon(m, ct, s.Criterion)
	default:
		return control.Gains{}, fmt.Errorf("%w: unknown method kind %d", ErrTuning, s.Kind)
	}
}

// validateModel enforces the shared preconditions of the gain-based
// formulas.
func validateModel(m fopdt.Model) error {
	if m.K <= 0 {
		return fmt.Errorf("%w: K must be positive, got %g", ErrTuning, m.K)
	}
	if m.L < 0 {
		return fmt.Errorf("%w: L must be non-negative, got %g", ErrTuning, m.L)
	}
	if m.T <= 0 {
		return fmt.Errorf("%w: T must be positive, got %g", ErrTuning, m.T)
	}
	return nil
}
