package linalg

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/structgp/internal/lazy"
)

// DenseSolver materializes the joint NT×NT covariance and factorizes it
// with a Cholesky decomposition.
type DenseSolver struct{}

// NewDenseSolver creates the reference solver.
func NewDenseSolver() *DenseSolver {
	return &DenseSolver{}
}

// Joint builds Data ⊗ Task + I ⊗ Noise, point-major.
func Joint(data, task, noise mat.Symmetric) *mat.SymDense {
	n, t := data.SymmetricDim(), task.SymmetricDim()
	k := lazy.KroneckerDense(data, task)
	for i := 0; i < n; i++ {
		for a := 0; a < t; a++ {
			for b := a; b < t; b++ {
				row, col := i*t+a, i*t+b
				k.SetSym(row, col, k.At(row, col)+noise.At(a, b))
			}
		}
	}
	return k
}

// Solve implements Solver.
func (DenseSolver) Solve(p Problem) (*Solution, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n, t := p.Dims()

	var chol mat.Cholesky
	if ok := chol.Factorize(Joint(p.Data, p.Task, p.Noise)); !ok {
		return nil, &NumericalError{Op: "cholesky", Reason: "joint covariance is not positive definite"}
	}

	r := mat.NewVecDense(n*t, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < t; j++ {
			r.SetVec(i*t+j, p.Residual.At(i, j))
		}
	}
	var a mat.VecDense
	if err := chol.SolveVecTo(&a, r); err != nil {
		return nil, &NumericalError{Op: "cholesky solve", Reason: err.Error()}
	}
	var kinv mat.SymDense
	if err := chol.InverseTo(&kinv); err != nil {
		return nil, &NumericalError{Op: "cholesky inverse", Reason: err.Error()}
	}

	alpha := mat.NewDense(n, t, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < t; j++ {
			alpha.Set(i, j, a.AtVec(i*t+j))
		}
	}

	// W = ½(K⁻¹ - ααᵗ) contracted against the other factor.
	w := func(row, col int) float64 {
		return 0.5 * (kinv.At(row, col) - a.AtVec(row)*a.AtVec(col))
	}
	dData := mat.NewDense(n, n, nil)
	dTask := mat.NewDense(t, t, nil)
	dNoise := mat.NewDense(t, t, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			kd := p.Data.At(i, j)
			sum := 0.0
			for x := 0; x < t; x++ {
				for y := 0; y < t; y++ {
					wv := w(i*t+x, j*t+y)
					sum += wv * p.Task.At(x, y)
					dTask.Set(x, y, dTask.At(x, y)+wv*kd)
					if i == j {
						dNoise.Set(x, y, dNoise.At(x, y)+wv)
					}
				}
			}
			dData.Set(i, j, sum)
		}
	}

	return &Solution{
		LogDet: chol.LogDet(),
		Quad:   mat.Dot(r, &a),
		Alpha:  alpha,
		DData:  dData,
		DTask:  dTask,
		DNoise: dNoise,
	}, nil
}
