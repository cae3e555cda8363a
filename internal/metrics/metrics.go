// Package metrics extracts the scalar performance figures of a
// simulated response: settling time, overshoot, steady-state error and
// rise time. It operates on plain time/output arrays and does not care
// how the trajectory was produced.
package metrics

import (
	"errors"
	"fmt"
	"math"
)

// ErrMetrics indicates a malformed or degenerate trajectory or
// parameter set.
var ErrMetrics = errors.New("metrics: invalid input")

const minSamples = 10

// Result is the value record of one Calculate call.
//
// OvershootPercent is deliberately unclamped: a response that never
// reaches the reference reports a negative value (undershoot). Callers
// that need the clamped-at-zero convention apply max(0, v) themselves.
type Result struct {
	SettlingTime            float64
	OvershootPercent        float64
	SteadyStateError        float64
	SteadyStateErrorPercent float64
	RiseTime                float64
	PeakValue               float64
	PeakTime                float64
	FinalValue              float64
	SettlingBand            float64
}

// Calculate validates the trajectory and computes all metrics.
//
// The settling time is the timestamp one sample after the last point
// outside the tolerance band around the reference; a signal that never
// leaves the band settles at the first timestamp, one that never
// re-enters settles at the final timestamp.
func Calculate(time, output []float64, reference, tolerance float64) (Result, error) {
	if len(time) < minSamples {
		return Result{}, fmt.Errorf("%w: time needs at least %d samples, got %d",
			ErrMetrics, minSamples, len(time))
	}
	if len(time) != len(output) {
		return Result{}, fmt.Errorf("%w: time and output lengths differ (%d vs %d)",
			ErrMetrics, len(time), len(output))
	}
	if reference == 0 {
		return Result{}, fmt.Errorf("%w: reference must be nonzero", ErrMetrics)
	}
	if tolerance <= 0 || tolerance >= 1 {
		return Result{}, fmt.Errorf("%w: tolerance must be in (0,1), got %g", ErrMetrics, tolerance)
	}
	for i := range time {
		if math.IsNaN(time[i]) || math.IsInf(time[i], 0) {
			return Result{}, fmt.Errorf("%w: time contains a non-finite value at index %d", ErrMetrics, i)
		}
		if math.IsNaN(output[i]) || math.IsInf(output[i], 0) {
			return Result{}, fmt.Errorf("%w: output contains a non-finite value at index %d", ErrMetrics, i)
		}
	}

	n := len(output)
	finalValue := output[n-1]

	peakValue := output[0]
	peakTime := time[0]
	for i := 1; i < n; i++ {
		if output[i] > peakValue {
			peakValue = output[i]
			peakTime = time[i]
		}
	}

	ess := reference - finalValue

	r := Result{
		FinalValue:              finalValue,
		PeakValue:               peakValue,
		PeakTime:                peakTime,
		SteadyStateError:        ess,
		SteadyStateErrorPercent: ess / math.Abs(reference) * 100,
		OvershootPercent:        (peakValue - reference) / math.Abs(reference) * 100,
		SettlingBand:            tolerance * math.Abs(reference),
	}

	r.SettlingTime = settlingTime(time, output, reference, r.SettlingBand)
	r.RiseTime = riseTime(time, output, peakValue)

	return r, nil
}

// settlingTime scans backwards for the last sample outside the band.
func settlingTime(time, output []float64, reference, band float64) float64 {
	lastOut := -1
	for i := len(output) - 1; i >= 0; i-- {
		if math.Abs(output[i]-reference) > band {
			lastOut = i
			break
		}
	}
	switch {
	case lastOut < 0:
		// Never left the band.
		return time[0]
	case lastOut == len(output)-1:
		// Never re-entered.
		return time[len(time)-1]
	default:
		return time[lastOut+1]
	}
}

// riseTime measures the 10% to 90% transition of the total change from
// the initial output to the peak. Responses that never cross a
// threshold report zero.
func riseTime(time, output []float64, peakValue float64) float64 {
	y0 := output[0]
	change := peakValue - y0
	if change == 0 {
		return 0
	}

	low := y0 + 0.1*change
	high := y0 + 0.9*change

	crossed := func(v, threshold float64) bool {
		if change > 0 {
			return v >= threshold
		}
		return v <= threshold
	}

	tLow, tHigh := math.NaN(), math.NaN()
	for i := range output {
		if math.IsNaN(tLow) && crossed(output[i], low) {
			tLow = time[i]
		}
		if crossed(output[i], high) {
			tHigh = time[i]
			break
		}
	}
	if math.IsNaN(tLow) || math.IsNaN(tHigh) {
		return 0
	}
	return tHigh - tLow
}
