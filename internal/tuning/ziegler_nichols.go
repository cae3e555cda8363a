package tuning

import (
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/fopdt"
)

// tuneReactionCurve applies the classical Ziegler-Nichols open-loop
// (reaction curve) rules:
//
//	P:   Kp = T/(L*K)
//	PI:  Kp = 0.9*T/(L*K),  Ti = 3.33*L
//	PID: Kp = 1.2*T/(L*K),  Ti = 2*L,  Td = 0.5*L
//
// All three divide by L, so a model without dead time is rejected.
func tuneReactionCurve(m fopdt.Model, ct control.Type) (control.Gains, error) {
	if err := validateModel(m); err != nil {
		return control.Gains{}, err
	}
	if m.L == 0 {
		return control.Gains{}, fmt.Errorf(
			"%w: Ziegler-Nichols reaction curve requires L > 0 (formulas divide by L)", ErrTuning)
	}

	g := control.Gains{Method: control.MethodZieglerNichols, Type: ct}
	switch ct {
	case control.TypeP:
		g.Kp = m.T / (m.L * m.K)
		g.Ti = math.Inf(1)
	case control.TypePI:
		g.Kp = 0.9 * m.T / (m.L * m.K)
		g.Ti = 3.33 * m.L
	case control.TypePID:
		g.Kp = 1.2 * m.T / (m.L * m.K)
		g.Ti = 2.0 * m.L
		g.Td = 0.5 * m.L
	default:
		return control.Gains{}, fmt.Errorf("%w: unknown controller type %v", ErrTuning, ct)
	}

	if err := g.Validate(); err != nil {
		return control.Gains{}, fmt.Errorf("%w: %v", ErrTuning, err)
	}
	return g, nil
}
