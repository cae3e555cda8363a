package poly

import (
	"math"
	"math/cmplx"
	"sort"
	"testing"
)

func TestTrim(t *testing.T) {
	c := Trim([]float64{0, 0, 1, 2})
	if len(c) != 2 || c[0] != 1 || c[1] != 2 {
		t.Errorf("expected [1 2], got %v", c)
	}

	c = Trim([]float64{0, 0})
	if len(c) != 1 || c[0] != 0 {
		t.Errorf("zero polynomial should trim to [0], got %v", c)
	}
}

func TestEval(t *testing.T) {
	// s^2 + 3s + 2 at s=2 -> 12
	v := Eval([]float64{1, 3, 2}, 2)
	if v != 12 {
		t.Errorf("expected 12, got %f", v)
	}
}

func TestEvalC(t *testing.T) {
	// s^2 + 1 at s=i -> 0
	v := EvalC([]float64{1, 0, 1}, complex(0, 1))
	if cmplx.Abs(v) > 1e-12 {
		t.Errorf("expected 0, got %v", v)
	}
}

func TestAdd(t *testing.T) {
	// (s+1) + 2*(1) = s + 3
	c := Add([]float64{1, 1}, []float64{1}, 2)
	if len(c) != 2 || c[0] != 1 || c[1] != 3 {
		t.Errorf("expected [1 3], got %v", c)
	}
}

func TestRootsReal(t *testing.T) {
	// s^2 + 3s + 2 = (s+1)(s+2)
	roots := Roots([]float64{1, 3, 2})
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}

	re := []float64{real(roots[0]), real(roots[1])}
	sort.Float64s(re)
	if math.Abs(re[0]+2) > 1e-6 || math.Abs(re[1]+1) > 1e-6 {
		t.Errorf("expected roots -2, -1, got %v", roots)
	}
	for _, r := range roots {
		if imag(r) != 0 {
			t.Errorf("expected real roots, got %v", r)
		}
	}
}

func TestRootsComplex(t *testing.T) {
	// s^2 + 2s + 5 -> -1 +/- 2i
	roots := Roots([]float64{1, 2, 5})
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	for _, r := range roots {
		if math.Abs(real(r)+1) > 1e-6 || math.Abs(math.Abs(imag(r))-2) > 1e-6 {
			t.Errorf("expected -1 +/- 2i, got %v", r)
		}
	}
}

func TestRootsHighOrder(t *testing.T) {
	// (s+1)(s+2)(s+3) = s^3 + 6s^2 + 11s + 6
	roots := Roots([]float64{1, 6, 11, 6})
	if len(roots) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(roots))
	}
	for _, want := range []float64{-1, -2, -3} {
		found := false
		for _, r := range roots {
			if math.Abs(real(r)-want) < 1e-6 && math.Abs(imag(r)) < 1e-6 {
				found = true
			}
		}
		if !found {
			t.Errorf("missing root %f in %v", want, roots)
		}
	}
}

func TestRootsConstant(t *testing.T) {
	if roots := Roots([]float64{5}); roots != nil {
		t.Errorf("constant polynomial should have no roots, got %v", roots)
	}
}

func TestMaxRealPart(t *testing.T) {
	// (s+1)(s-2): rightmost root at +2
	got := MaxRealPart([]float64{1, -1, -2})
	if math.Abs(got-2) > 1e-6 {
		t.Errorf("expected 2, got %f", got)
	}
}
