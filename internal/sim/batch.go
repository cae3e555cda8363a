package sim

import (
	"sync"

	"github.com/san-kum/pidlab/internal/control"
)

// BatchCandidate pairs a gain set with its own integrator instance;
// integrators carry scratch buffers and must not be shared across
// goroutines.
type BatchCandidate struct {
	Gains      control.Gains
	Integrator Integrator
}

// Batch evaluates several gain candidates against the same plant
// concurrently. Each run gets its own Simulator so no controller state
// is shared between goroutines.
type Batch struct {
	base *Simulator
}

func NewBatch(s *Simulator) *Batch {
	return &Batch{base: s}
}

// Run simulates the closed loop once per candidate and returns the
// trajectories in candidate order. The first failure aborts the batch.
func (b *Batch) Run(candidates []BatchCandidate, reference float64, cfg Config) ([]*Trajectory, error) {
	results := make([]*Trajectory, len(candidates))
	errs := make([]error, len(candidates))

	var wg sync.WaitGroup
	for i, cand := range candidates {
		wg.Add(1)
		go func(idx int, cand BatchCandidate) {
			defer wg.Done()

			s := New(b.base.model, cand.Integrator)
			if b.base.limits != nil {
				s.SetActuatorLimits(b.base.limits.UMin, b.base.limits.UMax)
			}
			results[idx], errs[idx] = s.ClosedLoop(cand.Gains, reference, cfg)
		}(i, cand)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
