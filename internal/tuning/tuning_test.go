package tuning

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/fopdt"
	"github.com/san-kum/pidlab/internal/plant"
)

func TestReactionCurveRejectsZeroDeadTime(t *testing.T) {
	m := fopdt.Model{K: 2, L: 0, T: 10}
	if _, err := Tune(ZieglerNichols(), m, control.TypePID); !errors.Is(err, ErrTuning) {
		t.Errorf("expected ErrTuning for L=0, got %v", err)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		m    fopdt.Model
	}{
		{"negative gain", fopdt.Model{K: -1, L: 1, T: 5}},
		{"zero gain", fopdt.Model{K: 0, L: 1, T: 5}},
		{"negative dead time", fopdt.Model{K: 1, L: -1, T: 5}},
		{"zero time constant", fopdt.Model{K: 1, L: 1, T: 0}},
	}
	for _, tt := range tests {
		if _, err := Tune(ZieglerNichols(), tt.m, control.TypePID); !errors.Is(err, ErrTuning) {
			t.Errorf("%s: expected ErrTuning, got %v", tt.name, err)
		}
		if _, err := Tune(CohenCoon(IAE), tt.m, control.TypePID); !errors.Is(err, ErrTuning) {
			t.Errorf("%s (cohen-coon): expected ErrTuning, got %v", tt.name, err)
		}
	}
}

func TestCohenCoonDeadTimeDominant(t *testing.T) {
	m := fopdt.Model{K: 1, L: 6, T: 5}
	_, err := Tune(CohenCoon(IAE), m, control.TypePID)
	if !errors.Is(err, ErrDeadTimeDominant) {
		t.Errorf("expected ErrDeadTimeDominant, got %v", err)
	}
	// Warning-grade failures still belong to the tuning taxonomy.
	if !errors.Is(err, ErrTuning) {
		t.Error("ErrDeadTimeDominant should wrap ErrTuning")
	}
}

func TestCohenCoonZeroDeadTimeStaysFinite(t *testing.T) {
	m := fopdt.Model{K: 2, L: 0, T: 10}
	g, err := Tune(CohenCoon(IAE), m, control.TypePID)
	if err != nil {
		t.Fatal(err)
	}
	for name, v := range map[string]float64{"Kp": g.Kp, "Ti": g.Ti, "Td": g.Td} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s must be finite for a delay-free model, got %g", name, v)
		}
	}
	if g.Kp <= 0 || g.Ti <= 0 {
		t.Errorf("gains must stay positive, got Kp=%g Ti=%g", g.Kp, g.Ti)
	}
}

func TestCohenCoonRejectsPureProportional(t *testing.T) {
	m := fopdt.Model{K: 1, L: 1, T: 5}
	if _, err := Tune(CohenCoon(IAE), m, control.TypeP); !errors.Is(err, ErrTuning) {
		t.Error("Cohen-Coon should reject P controllers")
	}
}

func TestCriticalPointThirdOrder(t *testing.T) {
	// G(s) = 1/(s+1)^3: Routh gives Kcr = 8, omega = sqrt(3).
	pm, err := plant.New([]float64{1}, []float64{1, 3, 3, 1})
	if err != nil {
		t.Fatal(err)
	}

	kcr, pcr, err := CriticalPoint(pm)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(kcr-8) > 1e-3 {
		t.Errorf("expected Kcr ~ 8, got %f", kcr)
	}
	wantPcr := 2 * math.Pi / math.Sqrt(3)
	if math.Abs(pcr-wantPcr) > 1e-3 {
		t.Errorf("expected Pcr ~ %f, got %f", wantPcr, pcr)
	}
}

func TestOscillationGains(t *testing.T) {
	pm, _ := plant.New([]float64{1}, []float64{1, 3, 3, 1})

	g, err := Tune(ZieglerNicholsOscillation(pm), fopdt.Model{}, control.TypePID)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(g.Kp-0.6*8) > 0.01 {
		t.Errorf("expected Kp ~ 4.8, got %f", g.Kp)
	}
	wantTi := 2 * math.Pi / math.Sqrt(3) / 2
	if math.Abs(g.Ti-wantTi) > 0.01 {
		t.Errorf("expected Ti ~ %f, got %f", wantTi, g.Ti)
	}
	if math.Abs(g.Td-g.Ti/4) > 0.01 {
		t.Errorf("expected Td = Ti/4 for the ZN table, got Td=%f Ti=%f", g.Td, g.Ti)
	}
}

func TestOscillationUnconditionallyStable(t *testing.T) {
	// First-order loops never cross the imaginary axis under
	// proportional gain.
	pm, _ := plant.New([]float64{1}, []float64{1, 1})
	_, _, err := CriticalPoint(pm)
	if !errors.Is(err, ErrTuning) {
		t.Errorf("expected ErrTuning for unconditionally stable plant, got %v", err)
	}
}

func TestOscillationAlreadyUnstable(t *testing.T) {
	pm, _ := plant.New([]float64{1}, []float64{1, -1})
	_, _, err := CriticalPoint(pm)
	if !errors.Is(err, ErrTuning) {
		t.Errorf("expected ErrTuning for unstable plant, got %v", err)
	}
}

func TestOscillationRequiresPlant(t *testing.T) {
	s := Strategy{Kind: KindZieglerNichols, Variant: SustainedOscillation}
	if _, err := Tune(s, fopdt.Model{}, control.TypePID); !errors.Is(err, ErrTuning) {
		t.Error("oscillation variant without a plant should fail")
	}
}

func TestParseCriterion(t *testing.T) {
	for s, want := range map[string]Criterion{"IAE": IAE, "ise": ISE, "ITAE": ITAE} {
		got, err := ParseCriterion(s)
		if err != nil || got != want {
			t.Errorf("ParseCriterion(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseCriterion("bogus"); err == nil {
		t.Error("unknown criterion should fail")
	}
}
