// Package experiment wires the identification, tuning, simulation and
// metrics stages into a single pipeline and provides name-based lookup
// of the pieces for the CLI.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/fopdt"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/tuning"
)

// Config describes one full study: which plant, how to tune it, and
// how to exercise the resulting loop.
type Config struct {
	Strategy   tuning.Strategy
	Controller control.Type
	Integrator sim.Integrator
	Reference  float64
	Horizon    float64
	Dt         float64
	Tolerance  float64
	Limits     *control.Limits
}

// Study runs identify, tune, simulate and evaluate against one plant.
type Study struct {
	cfg   Config
	plant *plant.Model
}

// Result is the complete output of one study.
type Result struct {
	Identified fopdt.Model
	Gains      control.Gains
	Trajectory *sim.Trajectory
	Metrics    metrics.Result
	Effort     metrics.Effort
}

func New(pm *plant.Model, cfg Config) *Study {
	return &Study{cfg: cfg, plant: pm}
}

// Run executes the pipeline. The context is checked between stages so
// a caller can abandon a slow identification or simulation.
func (s *Study) Run(ctx context.Context) (*Result, error) {
	model, err := fopdt.FromModel(s.plant)
	if err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gains, err := tuning.Tune(s.cfg.Strategy, model, s.cfg.Controller)
	if err != nil {
		return nil, fmt.Errorf("tune: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	traj, err := s.simulate(gains)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := metrics.Calculate(traj.Time, traj.Output, s.cfg.Reference, s.cfg.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	effort, err := metrics.ControlEffort(traj.Time, traj.Control)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	return &Result{
		Identified: model,
		Gains:      gains,
		Trajectory: traj,
		Metrics:    m,
		Effort:     effort,
	}, nil
}

func (s *Study) simulate(gains control.Gains) (*sim.Trajectory, error) {
	simulator := sim.New(s.plant, s.cfg.Integrator)
	if s.cfg.Limits != nil {
		simulator.SetActuatorLimits(s.cfg.Limits.UMin, s.cfg.Limits.UMax)
	}
	return simulator.ClosedLoop(gains, s.cfg.Reference, sim.Config{
		Horizon: s.cfg.Horizon,
		Dt:      s.cfg.Dt,
	})
}

// OpenVsClosed runs the plant under the same horizon with and without
// the controller so the two responses can be compared side by side.
func (s *Study) OpenVsClosed(gains control.Gains) (open, closed *sim.Trajectory, err error) {
	simulator := sim.New(s.plant, s.cfg.Integrator)
	if s.cfg.Limits != nil {
		simulator.SetActuatorLimits(s.cfg.Limits.UMin, s.cfg.Limits.UMax)
	}
	cfg := sim.Config{Horizon: s.cfg.Horizon, Dt: s.cfg.Dt}

	open, err = simulator.OpenLoop(s.cfg.Reference, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open loop: %w", err)
	}
	closed, err = simulator.ClosedLoop(gains, s.cfg.Reference, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("closed loop: %w", err)
	}
	return open, closed, nil
}
