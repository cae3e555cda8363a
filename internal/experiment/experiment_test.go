package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/tuning"
)

func testPlant(t *testing.T) *plant.Model {
	t.Helper()
	// 2 / (10s+1)(2s+1): stable second order, identifies with L > 0.
	pm, err := plant.New([]float64{2}, []float64{20, 12, 1})
	if err != nil {
		t.Fatalf("plant.New failed: %v", err)
	}
	return pm
}

func testConfig() Config {
	return Config{
		Strategy:   tuning.ZieglerNichols(),
		Controller: control.TypePID,
		Integrator: integrators.NewRK4(),
		Reference:  1.0,
		Horizon:    120,
		Dt:         0.02,
		Tolerance:  0.02,
	}
}

func TestStudyRun(t *testing.T) {
	study := New(testPlant(t), testConfig())
	res, err := study.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Identified.K <= 0 || res.Identified.T <= 0 || res.Identified.L <= 0 {
		t.Errorf("implausible FOPDT fit: %+v", res.Identified)
	}
	if res.Gains.Kp <= 0 {
		t.Errorf("Kp = %v, want > 0", res.Gains.Kp)
	}
	if res.Trajectory.Samples() < 10 {
		t.Errorf("trajectory too short: %d samples", res.Trajectory.Samples())
	}
	if math.IsNaN(res.Metrics.SettlingTime) {
		t.Error("metrics not populated")
	}
	if res.Effort.Energy <= 0 {
		t.Errorf("control effort energy = %v, want > 0", res.Effort.Energy)
	}
}

func TestStudyRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	study := New(testPlant(t), testConfig())
	if _, err := study.Run(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestOpenVsClosed(t *testing.T) {
	cfg := testConfig()
	study := New(testPlant(t), cfg)
	res, err := study.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	open, closed, err := study.OpenVsClosed(res.Gains)
	if err != nil {
		t.Fatalf("OpenVsClosed failed: %v", err)
	}
	if open.Samples() != closed.Samples() {
		t.Errorf("sample count mismatch: open %d, closed %d", open.Samples(), closed.Samples())
	}
	if open.Control != nil {
		t.Error("open-loop trajectory must carry no control trace")
	}
	// Unit step into a gain-2 plant settles near 2 open loop; the tuned
	// loop should end much closer to the reference.
	openErr := math.Abs(cfg.Reference - open.Output[open.Samples()-1])
	closedErr := math.Abs(cfg.Reference - closed.Output[closed.Samples()-1])
	if closedErr >= openErr {
		t.Errorf("closed-loop error %v not better than open-loop %v", closedErr, openErr)
	}
}

func TestCompare(t *testing.T) {
	cfg := testConfig()
	candidates := []Candidate{
		{Name: "zn", Strategy: tuning.ZieglerNichols()},
		{Name: "cc-iae", Strategy: tuning.CohenCoon(tuning.IAE)},
		{Name: "cc-itae", Strategy: tuning.CohenCoon(tuning.ITAE)},
	}
	out, err := Compare(testPlant(t), candidates, control.TypePID, cfg)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(out) != len(candidates) {
		t.Fatalf("got %d comparisons, want %d", len(out), len(candidates))
	}
	for i, c := range out {
		if c.Name != candidates[i].Name {
			t.Errorf("comparison %d out of order: %s", i, c.Name)
		}
		if c.Gains.Kp <= 0 {
			t.Errorf("%s: Kp = %v, want > 0", c.Name, c.Gains.Kp)
		}
		if c.Trajectory == nil {
			t.Errorf("%s: missing trajectory", c.Name)
		}
	}
	if out[0].Gains == out[1].Gains {
		t.Error("distinct methods produced identical gains")
	}
}

func TestCompareEmpty(t *testing.T) {
	if _, err := Compare(testPlant(t), nil, control.TypePID, testConfig()); err == nil {
		t.Fatal("expected error for empty candidate list")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	pm := testPlant(t)

	for _, name := range r.Strategies() {
		if _, err := r.Strategy(name, pm); err != nil {
			t.Errorf("Strategy(%q) failed: %v", name, err)
		}
	}
	for _, name := range r.Integrators() {
		if _, err := r.Integrator(name); err != nil {
			t.Errorf("Integrator(%q) failed: %v", name, err)
		}
	}

	if _, err := r.Strategy("nope", pm); err == nil {
		t.Error("expected error for unknown strategy")
	}
	if _, err := r.Integrator("nope"); err == nil {
		t.Error("expected error for unknown integrator")
	}

	ct, err := r.ControllerType("pid")
	if err != nil || ct != control.TypePID {
		t.Errorf("ControllerType(pid) = %v, %v", ct, err)
	}
}
