// Package poly provides the small amount of polynomial machinery the
// plant and tuning packages share: Horner evaluation, coefficient
// arithmetic, and complex root finding.
//
// Coefficients are stored highest degree first, matching how transfer
// functions are written down: [1, 3, 2] is s^2 + 3s + 2.
package poly

import (
	"math"
	"math/cmplx"
)

const (
	rootTol     = 1e-12
	maxRootIter = 500
)

// Trim drops leading zero coefficients. The zero polynomial trims to [0].
func Trim(c []float64) []float64 {
	i := 0
	for i < len(c)-1 && c[i] == 0 {
		i++
	}
	out := make([]float64, len(c)-i)
	copy(out, c[i:])
	return out
}

// Degree returns the degree after trimming leading zeros.
func Degree(c []float64) int {
	return len(Trim(c)) - 1
}

// IsZero reports whether every coefficient is zero.
func IsZero(c []float64) bool {
	for _, v := range c {
		if v != 0 {
			return false
		}
	}
	return true
}

// Eval evaluates the polynomial at a real point using Horner's rule.
func Eval(c []float64, x float64) float64 {
	var acc float64
	for _, v := range c {
		acc = acc*x + v
	}
	return acc
}

// EvalC evaluates the polynomial at a complex point.
func EvalC(c []float64, s complex128) complex128 {
	var acc complex128
	for _, v := range c {
		acc = acc*s + complex(v, 0)
	}
	return acc
}

// Add returns a + k*b, aligning the coefficient sequences at the
// constant term.
func Add(a, b []float64, k float64) []float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]float64, n)
	for i := 0; i < len(a); i++ {
		out[n-len(a)+i] += a[i]
	}
	for i := 0; i < len(b); i++ {
		out[n-len(b)+i] += k * b[i]
	}
	return out
}

// Roots finds all roots of the polynomial with the Durand-Kerner
// iteration. Constant polynomials have no roots. The returned slice is
// unsorted.
func Roots(c []float64) []complex128 {
	c = Trim(c)
	n := len(c) - 1
	if n < 1 {
		return nil
	}

	// Monic normalization keeps the iteration well scaled.
	monic := make([]complex128, n+1)
	for i, v := range c {
		monic[i] = complex(v/c[0], 0)
	}

	// Initial guesses on a circle whose radius follows the Cauchy bound,
	// offset from the axes so real-rooted polynomials still converge.
	radius := 0.0
	for _, v := range c[1:] {
		radius += math.Abs(v / c[0])
	}
	radius = math.Max(1, radius)

	roots := make([]complex128, n)
	for i := range roots {
		angle := 2*math.Pi*float64(i)/float64(n) + 0.4
		roots[i] = cmplx.Rect(radius*0.8, angle)
	}

	evalMonic := func(s complex128) complex128 {
		var acc complex128
		for _, v := range monic {
			acc = acc*s + v
		}
		return acc
	}

	for iter := 0; iter < maxRootIter; iter++ {
		converged := true
		for i := range roots {
			num := evalMonic(roots[i])
			den := complex(1, 0)
			for j := range roots {
				if j != i {
					den *= roots[i] - roots[j]
				}
			}
			if den == 0 {
				// Collided guesses; nudge apart.
				roots[i] += complex(rootTol, rootTol)
				converged = false
				continue
			}
			delta := num / den
			roots[i] -= delta
			if cmplx.Abs(delta) > rootTol*(1+cmplx.Abs(roots[i])) {
				converged = false
			}
		}
		if converged {
			break
		}
	}

	// Snap negligible imaginary parts so real roots come out real.
	for i, r := range roots {
		if math.Abs(imag(r)) < 1e-9*(1+math.Abs(real(r))) {
			roots[i] = complex(real(r), 0)
		}
	}
	return roots
}

// MaxRealPart returns the largest real part among the roots, or -Inf
// for a constant polynomial.
func MaxRealPart(c []float64) float64 {
	roots := Roots(c)
	maxRe := math.Inf(-1)
	for _, r := range roots {
		if real(r) > maxRe {
			maxRe = real(r)
		}
	}
	return maxRe
}
