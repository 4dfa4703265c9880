// Package linalg solves the Gaussian systems behind the multitask marginal
// likelihood.
//
// The joint covariance of N points and T tasks is
//
//	K = Data ⊗ Task + I_N ⊗ Noise
//
// indexed point-major (row = point*T + task). KroneckerSolver works on the
// factors directly in O(N³ + T³); DenseSolver materializes K and serves as
// the reference implementation.
package linalg

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/structgp/internal/tensor"
)

// Problem is one batch element of a multitask Gaussian solve.
type Problem struct {
	Data     mat.Symmetric // N×N data covariance
	Task     mat.Symmetric // T×T task covariance
	Noise    mat.Symmetric // T×T observation noise covariance
	Residual mat.Matrix    // N×T target minus mean, point-major
}

// Dims returns the number of points and tasks of the problem.
func (p Problem) Dims() (n, t int) {
	return p.Data.SymmetricDim(), p.Task.SymmetricDim()
}

func (p Problem) validate() error {
	n, t := p.Dims()
	if n == 0 || t == 0 {
		return &tensor.ShapeError{
			Op:     "solve",
			Left:   tensor.Shape{n, t},
			Axis:   -1,
			Reason: "problem has no points or no tasks",
		}
	}
	if p.Noise.SymmetricDim() != t {
		return &tensor.ShapeError{
			Op:     "solve",
			Left:   tensor.Shape{t, t},
			Right:  tensor.Shape{p.Noise.SymmetricDim(), p.Noise.SymmetricDim()},
			Axis:   -1,
			Reason: "noise and task blocks differ",
		}
	}
	if r, c := p.Residual.Dims(); r != n || c != t {
		return &tensor.ShapeError{
			Op:     "solve",
			Left:   tensor.Shape{n, t},
			Right:  tensor.Shape{r, c},
			Axis:   -1,
			Reason: "residual does not match covariance",
		}
	}
	return nil
}

// Solution carries the value and gradients of
//
//	f = ½ rᵗK⁻¹r + ½ log|K|
//
// Each gradient treats every entry of its factor as an independent
// variable, which is what a gradient tape expects for a seed.
type Solution struct {
	LogDet float64    // log|K|
	Quad   float64    // rᵗK⁻¹r
	Alpha  *mat.Dense // K⁻¹r as N×T, point-major

	DData  *mat.Dense // ∂f/∂Data, N×N
	DTask  *mat.Dense // ∂f/∂Task, T×T
	DNoise *mat.Dense // ∂f/∂Noise, T×T
}

// Solver solves multitask Gaussian problems.
type Solver interface {
	Solve(p Problem) (*Solution, error)
}

// symmetrize returns ½(m + mᵗ) as a SymDense.
func symmetrize(m mat.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return out
}

// eigen factorizes a symmetric matrix, returning ascending eigenvalues and
// the orthonormal eigenvectors as columns.
func eigen(op string, a mat.Symmetric) ([]float64, *mat.Dense, error) {
	var es mat.EigenSym
	if ok := es.Factorize(a, true); !ok {
		return nil, nil, &NumericalError{Op: op, Reason: "eigendecomposition did not converge"}
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	return es.Values(nil), &vecs, nil
}

// sandwich returns m·diag(w)·mᵗ.
func sandwich(m *mat.Dense, w []float64) *mat.Dense {
	var tmp, out mat.Dense
	tmp.Mul(m, mat.NewDiagDense(len(w), w))
	out.Mul(&tmp, m.T())
	return &out
}

// halfDiff returns ½(a - b).
func halfDiff(a, b mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Sub(a, b)
	out.Scale(0.5, &out)
	return &out
}
