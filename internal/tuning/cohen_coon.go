package tuning

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/fopdt"
)

// simplifiedRatio is the L/T threshold below which the short-form
// Cohen-Coon coefficients apply.
const simplifiedRatio = 0.3

// zeroDeadTimeFraction substitutes a nominal dead time of T/1000 for
// delay-free models so the gain forms, which divide by L, stay finite.
const zeroDeadTimeFraction = 1e-3

// tuneCohenCoon applies the Cohen-Coon rules parameterized by dead-time
// ratio rho = L/T.
//
// For rho < 0.3 the simplified coefficients apply regardless of
// criterion:
//
//	Kp = 1.35*T/(L*K), Ti = 2.5*L, Td = 0.37*L
//
// Otherwise the general forms are selected by criterion; ISE and ITAE
// carry fixed coefficient tables, IAE uses the rho-corrected
// expressions. PI controllers drop the derivative term and, in the IAE
// general branch, use the dedicated PI coefficients.
//
// Models with rho >= 1 are rejected: a dead time that dominates the
// time constant makes the formula family unreliable.
func tuneCohenCoon(m fopdt.Model, ct control.Type, crit Criterion) (control.Gains, error) {
	if err := validateModel(m); err != nil {
		return control.Gains{}, err
	}
	if ct != control.TypePI && ct != control.TypePID {
		return control.Gains{}, fmt.Errorf("%w: Cohen-Coon supports PI and PID only, got %v", ErrTuning, ct)
	}

	rho := m.Ratio()
	if rho >= 1 {
		return control.Gains{}, fmt.Errorf("%w: L/T = %.3f", ErrDeadTimeDominant, rho)
	}

	l := m.L
	if l == 0 {
		l = zeroDeadTimeFraction * m.T
	}

	g := control.Gains{Method: control.MethodCohenCoon, Type: ct}
	base := m.T / (l * m.K)

	switch {
	case rho < simplifiedRatio:
		g.Kp = 1.35 * base
		g.Ti = 2.5 * l
		g.Td = 0.37 * l

	case crit == IAE:
		if ct == control.TypePI {
			g.Kp = base * (0.9 + rho/12)
			g.Ti = l * (30 + 3*rho) / (9 + 20*rho)
		} else {
			g.Kp = base * (4.0/3.0 + rho/4)
			g.Ti = l * (32 + 6*rho) / (13 + 8*rho)
			g.Td = 4 * l / (11 + 2*rho)
		}

	case crit == ISE:
		g.Kp = 1.495 * base
		g.Ti = 1.57 * l
		g.Td = 0.735 * l

	case crit == ITAE:
		g.Kp = 0.859 * base
		g.Ti = 0.674 * l
		g.Td = 0.134 * l

	default:
		return control.Gains{}, fmt.Errorf("%w: unknown criterion %v", ErrTuning, crit)
	}

	if ct == control.TypePI {
		g.Td = 0
	}

	if err := g.Validate(); err != nil {
		return control.Gains{}, fmt.Errorf("%w: %v", ErrTuning, err)
	}
	return g, nil
}
