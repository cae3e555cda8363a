package integrators

import (
	"testing"

	"github.com/san-kum/pidlab/internal/sim"
)

type benchSystem struct{}

func (b *benchSystem) Dim() int { return 2 }
func (b *benchSystem) Derivative(x sim.State, u float64, t float64) sim.State {
	return sim.State{x[1], u - x[0] - 0.5*x[1]}
}

func BenchmarkEuler(b *testing.B) {
	integ := NewEuler()
	sys := &benchSystem{}
	x := sim.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(sys, x, 1.0, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integ := NewRK4()
	sys := &benchSystem{}
	x := sim.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(sys, x, 1.0, 0, 0.01)
	}
}
