package experiment

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/fopdt"
	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/tuning"
)

// Candidate names one tuning strategy entered into a comparison.
type Candidate struct {
	Name     string
	Strategy tuning.Strategy
}

// Comparison holds the per-candidate outcome of a Compare run, in
// candidate order.
type Comparison struct {
	Name       string
	Gains      control.Gains
	Trajectory *sim.Trajectory
	Metrics    metrics.Result
}

// Compare tunes the same plant with every candidate strategy and
// simulates all resulting loops concurrently under identical
// conditions.
func Compare(pm *plant.Model, candidates []Candidate, ct control.Type, cfg Config) ([]Comparison, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("compare: no candidates")
	}

	model, err := fopdt.FromModel(pm)
	if err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}

	out := make([]Comparison, len(candidates))
	batch := make([]sim.BatchCandidate, len(candidates))
	for i, c := range candidates {
		gains, err := tuning.Tune(c.Strategy, model, ct)
		if err != nil {
			return nil, fmt.Errorf("tune %s: %w", c.Name, err)
		}
		out[i] = Comparison{Name: c.Name, Gains: gains}
		batch[i] = sim.BatchCandidate{Gains: gains, Integrator: integrators.NewRK4()}
	}

	base := sim.New(pm, integrators.NewRK4())
	if cfg.Limits != nil {
		base.SetActuatorLimits(cfg.Limits.UMin, cfg.Limits.UMax)
	}
	trajectories, err := sim.NewBatch(base).Run(batch, cfg.Reference, sim.Config{
		Horizon: cfg.Horizon,
		Dt:      cfg.Dt,
	})
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	for i, traj := range trajectories {
		m, err := metrics.Calculate(traj.Time, traj.Output, cfg.Reference, cfg.Tolerance)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", out[i].Name, err)
		}
		out[i].Trajectory = traj
		out[i].Metrics = m
	}
	return out, nil
}
