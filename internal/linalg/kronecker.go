package linalg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// KroneckerSolver solves Data ⊗ Task + I ⊗ Noise without forming the joint
// matrix.
//
// With P = Noise^{-1/2}, the whitened task matrix C = P·Task·P and the
// eigendecompositions Data = Q·diag(λ)·Qᵗ, C = U·diag(σ)·Uᵗ, the joint
// inverse is (Q⊗S)·diag(1/D)·(Q⊗S)ᵗ where S = P·U and D_kr = λ_k·σ_r + 1.
// Every quantity of Solution follows from these factors.
type KroneckerSolver struct{}

// NewKroneckerSolver creates a structured solver.
func NewKroneckerSolver() *KroneckerSolver {
	return &KroneckerSolver{}
}

// Solve implements Solver.
func (KroneckerSolver) Solve(p Problem) (*Solution, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n, t := p.Dims()

	// Noise^{-1/2}
	nu, v, err := eigen("noise eigendecomposition", p.Noise)
	if err != nil {
		return nil, err
	}
	logDetNoise := 0.0
	inv := make([]float64, t)
	for i, val := range nu {
		if !(val > 0) {
			return nil, &NumericalError{
				Op:     "noise whitening",
				Reason: fmt.Sprintf("noise covariance is not positive definite (eigenvalue %g)", val),
			}
		}
		logDetNoise += math.Log(val)
		inv[i] = 1 / math.Sqrt(val)
	}
	whiten := sandwich(v, inv)

	var pt, c mat.Dense
	pt.Mul(whiten, p.Task)
	c.Mul(&pt, whiten)
	sigma, u, err := eigen("task eigendecomposition", symmetrize(&c))
	if err != nil {
		return nil, err
	}
	lambda, q, err := eigen("data eigendecomposition", p.Data)
	if err != nil {
		return nil, err
	}
	clampNonNegative(sigma)
	clampNonNegative(lambda)

	var s mat.Dense
	s.Mul(whiten, u)

	// Rotate the residual into the joint eigenbasis, scale, rotate back.
	var qr, z mat.Dense
	qr.Mul(q.T(), p.Residual)
	z.Mul(&qr, &s)
	logDet := float64(n) * logDetNoise
	for k := 0; k < n; k++ {
		for r := 0; r < t; r++ {
			d := lambda[k]*sigma[r] + 1
			logDet += math.Log(d)
			z.Set(k, r, z.At(k, r)/d)
		}
	}
	var qz, alpha mat.Dense
	qz.Mul(q, &z)
	alpha.Mul(&qz, s.T())

	quad := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < t; j++ {
			quad += p.Residual.At(i, j) * alpha.At(i, j)
		}
	}

	// Trace terms of the log-determinant gradients.
	wTask := make([]float64, t)
	wNoise := make([]float64, t)
	wData := make([]float64, n)
	for k := 0; k < n; k++ {
		for r := 0; r < t; r++ {
			d := lambda[k]*sigma[r] + 1
			wTask[r] += lambda[k] / d
			wNoise[r] += 1 / d
			wData[k] += sigma[r] / d
		}
	}

	var tmp, aka, aa, aba mat.Dense
	tmp.Mul(alpha.T(), p.Data)
	aka.Mul(&tmp, &alpha)
	aa.Mul(alpha.T(), &alpha)
	tmp.Reset()
	tmp.Mul(&alpha, p.Task)
	aba.Mul(&tmp, alpha.T())

	return &Solution{
		LogDet: logDet,
		Quad:   quad,
		Alpha:  &alpha,
		DData:  halfDiff(sandwich(q, wData), &aba),
		DTask:  halfDiff(sandwich(&s, wTask), &aka),
		DNoise: halfDiff(sandwich(&s, wNoise), &aa),
	}, nil
}

// clampNonNegative zeroes round-off negatives in the spectrum of a PSD
// matrix.
func clampNonNegative(vals []float64) {
	for i, v := range vals {
		if v < 0 {
			vals[i] = 0
		}
	}
}
