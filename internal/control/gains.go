// Package control holds the controller-gain value type shared by the
// tuning and simulation layers, and the discrete PID controller that
// consumes it.
package control

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGains indicates gains that violate the tuning invariants.
var ErrInvalidGains = errors.New("control: invalid gains")

// Method tags which tuning family produced a set of gains.
type Method int

const (
	MethodZieglerNichols Method = iota
	MethodCohenCoon
)

func (m Method) String() string {
	switch m {
	case MethodZieglerNichols:
		return "ziegler-nichols"
	case MethodCohenCoon:
		return "cohen-coon"
	default:
		return "unknown"
	}
}

// Type selects the controller structure.
type Type int

const (
	TypeP Type = iota
	TypePI
	TypePID
)

func (t Type) String() string {
	switch t {
	case TypeP:
		return "P"
	case TypePI:
		return "PI"
	case TypePID:
		return "PID"
	default:
		return "unknown"
	}
}

// ParseType maps a CLI/config string to a controller Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "P", "p":
		return TypeP, nil
	case "PI", "pi":
		return TypePI, nil
	case "PID", "pid":
		return TypePID, nil
	default:
		return 0, fmt.Errorf("%w: unknown controller type %q", ErrInvalidGains, s)
	}
}

// Gains is an immutable tuning result. Ti = +Inf encodes "no integral
// action" (pure proportional controllers).
type Gains struct {
	Kp     float64
	Ti     float64
	Td     float64
	Method Method
	Type   Type
}

// HasIntegral reports whether the integral term is active.
func (g Gains) HasIntegral() bool {
	return g.Type != TypeP && !math.IsInf(g.Ti, 1) && g.Ti > 0
}

// Validate checks the gain invariants: Kp > 0, Ti > 0 for PI/PID,
// Td >= 0, all finite apart from the Ti = +Inf proportional encoding.
func (g Gains) Validate() error {
	if math.IsNaN(g.Kp) || math.IsInf(g.Kp, 0) || g.Kp <= 0 {
		return fmt.Errorf("%w: Kp must be positive and finite, got %g", ErrInvalidGains, g.Kp)
	}
	if g.Type == TypeP {
		if !math.IsInf(g.Ti, 1) {
			return fmt.Errorf("%w: P controller must carry Ti=+Inf, got %g", ErrInvalidGains, g.Ti)
		}
	} else {
		if math.IsNaN(g.Ti) || g.Ti <= 0 {
			return fmt.Errorf("%w: Ti must be positive, got %g", ErrInvalidGains, g.Ti)
		}
	}
	if math.IsNaN(g.Td) || math.IsInf(g.Td, 0) || g.Td < 0 {
		return fmt.Errorf("%w: Td must be non-negative and finite, got %g", ErrInvalidGains, g.Td)
	}
	return nil
}
