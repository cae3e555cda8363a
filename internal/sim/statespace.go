package sim

import (
	"github.com/san-kum/pidlab/internal/plant"
)

// StateSpace is the controllable-canonical realization of a proper
// transfer function:
//
//	x' = A x + B u
//	y  = C x + D u
//
// A is a companion matrix, so only its bottom row is stored.
type StateSpace struct {
	lastRow []float64 // bottom row of A: [-a_n ... -a_1] (monic denominator)
	c       []float64
	d       float64
	n       int
}

// Realize builds the canonical realization. The direct feedthrough D is
// obtained by one round of synthetic division: N(s) = D*Den(s) + R(s)
// with deg R < deg Den, and R supplies the output row C.
func Realize(m *plant.Model) *StateSpace {
	den := m.Den()
	num := m.Num()
	n := len(den) - 1

	// Monic denominator: s^n + a_1 s^(n-1) + ... + a_n.
	a := make([]float64, n+1)
	for i, v := range den {
		a[i] = v / den[0]
	}

	// Pad numerator to the denominator length, scaled to the monic form.
	b := make([]float64, n+1)
	offset := n + 1 - len(num)
	for i, v := range num {
		b[offset+i] = v / den[0]
	}

	d := b[0]
	r := make([]float64, n) // remainder coefficients, highest degree first
	for i := 1; i <= n; i++ {
		r[i-1] = b[i] - d*a[i]
	}

	lastRow := make([]float64, n)
	for i := 0; i < n; i++ {
		lastRow[i] = -a[n-i]
	}

	c := make([]float64, n)
	for i := 0; i < n; i++ {
		c[i] = r[n-1-i]
	}

	return &StateSpace{lastRow: lastRow, c: c, d: d, n: n}
}

// Dim returns the state dimension.
func (ss *StateSpace) Dim() int {
	return ss.n
}

// Derivative computes A x + B u exploiting the companion structure:
// each state derives to the next, the last row carries the dynamics.
func (ss *StateSpace) Derivative(x State, u float64, _ float64) State {
	if ss.n == 0 {
		return State{}
	}
	dx := make(State, ss.n)
	for i := 0; i < ss.n-1; i++ {
		dx[i] = x[i+1]
	}
	acc := u
	for i, a := range ss.lastRow {
		acc += a * x[i]
	}
	dx[ss.n-1] = acc
	return dx
}

// Output computes y = C x + D u.
func (ss *StateSpace) Output(x State, u float64) float64 {
	y := ss.d * u
	for i, c := range ss.c {
		y += c * x[i]
	}
	return y
}
