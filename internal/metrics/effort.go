package metrics

import (
	"fmt"
	"math"
)

// Effort summarizes how hard the controller worked over a run.
type Effort struct {
	// TotalVariation is the accumulated absolute change of the control
	// signal, a proxy for actuator wear.
	TotalVariation float64
	// Energy is the trapezoidal integral of u squared over time.
	Energy float64
	// MaxMagnitude is the largest absolute control value seen.
	MaxMagnitude float64
}

// ControlEffort integrates the control trace of a closed-loop run.
func ControlEffort(time, control []float64) (Effort, error) {
	if len(time) < 2 {
		return Effort{}, fmt.Errorf("%w: control effort needs at least 2 samples, got %d",
			ErrMetrics, len(time))
	}
	if len(time) != len(control) {
		return Effort{}, fmt.Errorf("%w: time and control lengths differ (%d vs %d)",
			ErrMetrics, len(time), len(control))
	}

	var e Effort
	e.MaxMagnitude = math.Abs(control[0])
	for i := 1; i < len(control); i++ {
		dt := time[i] - time[i-1]
		if dt <= 0 {
			return Effort{}, fmt.Errorf("%w: time must be strictly increasing at index %d", ErrMetrics, i)
		}
		e.TotalVariation += math.Abs(control[i] - control[i-1])
		e.Energy += 0.5 * (control[i]*control[i] + control[i-1]*control[i-1]) * dt
		if m := math.Abs(control[i]); m > e.MaxMagnitude {
			e.MaxMagnitude = m
		}
	}
	return e, nil
}

// ErrorIndices are the classical integral criteria of the tracking
// error e(t) = reference - output(t).
type ErrorIndices struct {
	IAE  float64
	ISE  float64
	ITAE float64
}

// IntegralIndices computes IAE, ISE and ITAE by trapezoidal rule.
func IntegralIndices(time, output []float64, reference float64) (ErrorIndices, error) {
	if len(time) < 2 {
		return ErrorIndices{}, fmt.Errorf("%w: integral indices need at least 2 samples, got %d",
			ErrMetrics, len(time))
	}
	if len(time) != len(output) {
		return ErrorIndices{}, fmt.Errorf("%w: time and output lengths differ (%d vs %d)",
			ErrMetrics, len(time), len(output))
	}

	var idx ErrorIndices
	prevErr := reference - output[0]
	for i := 1; i < len(output); i++ {
		dt := time[i] - time[i-1]
		if dt <= 0 {
			return ErrorIndices{}, fmt.Errorf("%w: time must be strictly increasing at index %d", ErrMetrics, i)
		}
		e := reference - output[i]
		idx.IAE += 0.5 * (math.Abs(e) + math.Abs(prevErr)) * dt
		idx.ISE += 0.5 * (e*e + prevErr*prevErr) * dt
		idx.ITAE += 0.5 * (time[i]*math.Abs(e) + time[i-1]*math.Abs(prevErr)) * dt
		prevErr = e
	}
	return idx, nil
}
