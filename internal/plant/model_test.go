package plant

import (
	"errors"
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		num  []float64
		den  []float64
	}{
		{"empty numerator", []float64{}, []float64{1, 1}},
		{"empty denominator", []float64{1}, []float64{}},
		{"zero denominator", []float64{1}, []float64{0, 0}},
		{"nan coefficient", []float64{math.NaN()}, []float64{1, 1}},
		{"inf coefficient", []float64{1}, []float64{math.Inf(1), 1}},
		{"improper", []float64{1, 0, 0}, []float64{1, 1}},
	}

	for _, tt := range tests {
		_, err := New(tt.num, tt.den)
		if !errors.Is(err, ErrInvalidModel) {
			t.Errorf("%s: expected ErrInvalidModel, got %v", tt.name, err)
		}
	}
}

func TestPolesAndZeros(t *testing.T) {
	// (s+2)/(s^2+3s+2) has zero at -2, poles at -1 and -2
	m, err := New([]float64{1, 2}, []float64{1, 3, 2})
	if err != nil {
		t.Fatal(err)
	}

	zeros := m.Zeros()
	if len(zeros) != 1 || math.Abs(real(zeros[0])+2) > 1e-6 {
		t.Errorf("expected zero at -2, got %v", zeros)
	}

	poles := m.Poles()
	if len(poles) != 2 {
		t.Fatalf("expected 2 poles, got %d", len(poles))
	}
	for _, p := range poles {
		if real(p) >= 0 {
			t.Errorf("expected left-half-plane poles, got %v", p)
		}
	}
}

func TestIsStable(t *testing.T) {
	stable, _ := New([]float64{1}, []float64{1, 1})
	if !stable.IsStable() {
		t.Error("1/(s+1) should be stable")
	}

	unstable, _ := New([]float64{1}, []float64{1, -1})
	if unstable.IsStable() {
		t.Error("1/(s-1) should be unstable")
	}

	// Pole at the origin is marginal, classified unstable.
	marginal, _ := New([]float64{1}, []float64{1, 0})
	if marginal.IsStable() {
		t.Error("1/s should not be stable")
	}
}

func TestDCGain(t *testing.T) {
	m, _ := New([]float64{2}, []float64{10, 1})
	k, err := m.DCGain()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(k-2) > 1e-12 {
		t.Errorf("expected DC gain 2, got %f", k)
	}

	integrator, _ := New([]float64{1}, []float64{1, 0})
	if _, err := integrator.DCGain(); !errors.Is(err, ErrInvalidModel) {
		t.Error("integrator should have no DC gain")
	}
}

func TestEvaluate(t *testing.T) {
	m, _ := New([]float64{1}, []float64{1, 1})

	v, err := m.Evaluate(complex(1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(real(v)-0.5) > 1e-12 {
		t.Errorf("expected 0.5 at s=1, got %v", v)
	}

	if _, err := m.Evaluate(complex(-1, 0)); !errors.Is(err, ErrInvalidModel) {
		t.Error("evaluation at a pole should fail")
	}
}

func TestTimeConstants(t *testing.T) {
	// Poles at -1 and -10: slowest tau=1, fastest tau=0.1
	m, _ := New([]float64{1}, []float64{1, 11, 10})

	slow, ok := m.SlowestTimeConstant()
	if !ok || math.Abs(slow-1) > 1e-6 {
		t.Errorf("expected slowest tau 1, got %f (ok=%v)", slow, ok)
	}

	fast, ok := m.FastestTimeConstant()
	if !ok || math.Abs(fast-0.1) > 1e-6 {
		t.Errorf("expected fastest tau 0.1, got %f (ok=%v)", fast, ok)
	}
}

func TestImmutability(t *testing.T) {
	num := []float64{1, 2}
	m, _ := New(num, []float64{1, 3, 2})
	num[0] = 99

	got := m.Num()
	if got[0] != 1 {
		t.Error("model should copy coefficients on construction")
	}
	got[0] = 99
	if m.Num()[0] != 1 {
		t.Error("accessor should return a copy")
	}
}
