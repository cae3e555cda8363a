package sim_test

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/sim"
)

func firstOrderPlant(t *testing.T, gain, tau float64) *plant.Model {
	t.Helper()
	pm, err := plant.New([]float64{gain}, []float64{tau, 1})
	if err != nil {
		t.Fatalf("plant.New failed: %v", err)
	}
	return pm
}

func TestOpenLoopFirstOrderStep(t *testing.T) {
	// K/(tau*s+1) under a unit step: y(t) = K(1 - exp(-t/tau)).
	pm := firstOrderPlant(t, 2.0, 5.0)
	s := sim.New(pm, integrators.NewRK4())

	tr, err := s.OpenLoop(1.0, sim.Config{Horizon: 30, Dt: 0.01})
	if err != nil {
		t.Fatalf("OpenLoop failed: %v", err)
	}

	for i, tt := range tr.Time {
		want := 2.0 * (1 - math.Exp(-tt/5.0))
		if math.Abs(tr.Output[i]-want) > 1e-6 {
			t.Fatalf("output(%.2f) = %v, want %v", tt, tr.Output[i], want)
		}
	}

	// At t = 3*tau the response sits within 5% of its final value.
	idx := int(3 * 5.0 / 0.01)
	if math.Abs(tr.Output[idx]-2.0) > 0.05*2.0 {
		t.Errorf("output at 3 tau = %v, want within 5%% of 2", tr.Output[idx])
	}
	if tr.Control != nil {
		t.Error("open-loop trajectory must not carry a control trace")
	}
}

func TestValidation(t *testing.T) {
	pm := firstOrderPlant(t, 1.0, 1.0)
	s := sim.New(pm, integrators.NewRK4())

	cases := []struct {
		name string
		cfg  sim.Config
		want error
	}{
		{"zero dt", sim.Config{Horizon: 10, Dt: 0}, sim.ErrSimulation},
		{"negative horizon", sim.Config{Horizon: -1, Dt: 0.01}, sim.ErrSimulation},
		{"too few samples", sim.Config{Horizon: 0.01, Dt: 0.005}, sim.ErrSimulation},
		{"dt too large", sim.Config{Horizon: 10, Dt: 0.5}, sim.ErrTimestep},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.OpenLoop(1.0, tc.cfg); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTimestepGuardScalesWithFastestPole(t *testing.T) {
	// Poles at -1 and -10: fastest time constant 0.1, so dt must stay
	// at or below 0.002.
	pm, err := plant.New([]float64{1}, []float64{0.1, 1.1, 1})
	if err != nil {
		t.Fatalf("plant.New failed: %v", err)
	}
	s := sim.New(pm, integrators.NewRK4())

	if _, err := s.OpenLoop(1.0, sim.Config{Horizon: 10, Dt: 0.01}); !errors.Is(err, sim.ErrTimestep) {
		t.Errorf("expected sim.ErrTimestep for dt=0.01, got %v", err)
	}
	if _, err := s.OpenLoop(1.0, sim.Config{Horizon: 10, Dt: 0.002}); err != nil {
		t.Errorf("dt=0.002 should pass the guard: %v", err)
	}
}

func TestClosedLoopTracksReference(t *testing.T) {
	pm := firstOrderPlant(t, 2.0, 10.0)
	s := sim.New(pm, integrators.NewRK4())

	gains := control.Gains{Kp: 2.0, Ti: 5.0, Type: control.TypePI}
	tr, err := s.ClosedLoop(gains, 1.0, sim.Config{Horizon: 100, Dt: 0.05})
	if err != nil {
		t.Fatalf("ClosedLoop failed: %v", err)
	}

	if len(tr.Control) != len(tr.Output) {
		t.Fatalf("control and output lengths differ: %d vs %d", len(tr.Control), len(tr.Output))
	}
	final := tr.Output[len(tr.Output)-1]
	if math.Abs(final-1.0) > 0.02 {
		t.Errorf("final output = %v, want ~1 (integral action removes offset)", final)
	}
}

func TestClosedLoopRejectsInvalidGains(t *testing.T) {
	pm := firstOrderPlant(t, 1.0, 1.0)
	s := sim.New(pm, integrators.NewRK4())

	bad := control.Gains{Kp: -1, Ti: 1, Type: control.TypePI}
	if _, err := s.ClosedLoop(bad, 1.0, sim.Config{Horizon: 10, Dt: 0.01}); !errors.Is(err, sim.ErrSimulation) {
		t.Fatalf("expected sim.ErrSimulation, got %v", err)
	}
}

func TestClosedLoopDivergenceDetected(t *testing.T) {
	// Unstable closed loop: huge gain on an oscillatory plant with
	// Euler integration blows up fast.
	pm, err := plant.New([]float64{1}, []float64{1, 0.1, 1})
	if err != nil {
		t.Fatalf("plant.New failed: %v", err)
	}
	s := sim.New(pm, integrators.NewEuler())

	gains := control.Gains{Kp: 1e8, Ti: math.Inf(1), Type: control.TypeP}
	_, err = s.ClosedLoop(gains, 1.0, sim.Config{Horizon: 100, Dt: 0.02})
	if !errors.Is(err, sim.ErrDiverged) {
		t.Fatalf("expected sim.ErrDiverged, got %v", err)
	}
	var stepErr *sim.StepError
	if !errors.As(err, &stepErr) {
		t.Fatal("expected a StepError")
	}
}

func TestActuatorLimitsClampControl(t *testing.T) {
	pm := firstOrderPlant(t, 2.0, 10.0)
	s := sim.New(pm, integrators.NewRK4())
	s.SetActuatorLimits(0, 0.4)

	gains := control.Gains{Kp: 50, Ti: 2, Type: control.TypePI}
	tr, err := s.ClosedLoop(gains, 1.0, sim.Config{Horizon: 100, Dt: 0.05})
	if err != nil {
		t.Fatalf("ClosedLoop failed: %v", err)
	}
	for i, u := range tr.Control {
		if u < 0 || u > 0.4 {
			t.Fatalf("control[%d] = %v escapes [0, 0.4]", i, u)
		}
	}
}

func TestBatchMatchesSequentialRuns(t *testing.T) {
	pm := firstOrderPlant(t, 2.0, 10.0)
	base := sim.New(pm, integrators.NewRK4())
	cfg := sim.Config{Horizon: 60, Dt: 0.05}

	candidates := []sim.BatchCandidate{
		{Gains: control.Gains{Kp: 1, Ti: 5, Type: control.TypePI}, Integrator: integrators.NewRK4()},
		{Gains: control.Gains{Kp: 3, Ti: 8, Td: 0.5, Type: control.TypePID}, Integrator: integrators.NewRK4()},
	}
	results, err := sim.NewBatch(base).Run(candidates, 1.0, cfg)
	if err != nil {
		t.Fatalf("Batch.Run failed: %v", err)
	}

	for i, cand := range candidates {
		single, err := sim.New(pm, integrators.NewRK4()).ClosedLoop(cand.Gains, 1.0, cfg)
		if err != nil {
			t.Fatalf("sequential run %d failed: %v", i, err)
		}
		if len(single.Output) != len(results[i].Output) {
			t.Fatalf("candidate %d: length mismatch", i)
		}
		for j := range single.Output {
			if single.Output[j] != results[i].Output[j] {
				t.Fatalf("candidate %d diverges from sequential run at sample %d", i, j)
			}
		}
	}
}
