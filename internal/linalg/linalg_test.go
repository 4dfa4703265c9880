package linalg_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/structgp/internal/linalg"
	"github.com/born-ml/structgp/internal/tensor"
	"github.com/born-ml/structgp/internal/testutil"
)

// randPSD returns A·Aᵗ + jitter·I for a random n×rank A.
func randPSD(rng *rand.Rand, n, rank int, jitter float64) *mat.SymDense {
	a := mat.NewDense(n, rank, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < rank; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
	}
	out := mat.NewSymDense(n, nil)
	out.SymOuterK(1, a)
	for i := 0; i < n; i++ {
		out.SetSym(i, i, out.At(i, i)+jitter)
	}
	return out
}

func randProblem(rng *rand.Rand, n, t int) linalg.Problem {
	r := mat.NewDense(n, t, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < t; j++ {
			r.Set(i, j, rng.NormFloat64())
		}
	}
	return linalg.Problem{
		Data:     randPSD(rng, n, 2, 0), // rank deficient on purpose
		Task:     randPSD(rng, t, 1, 0),
		Noise:    randPSD(rng, t, t, 0.1),
		Residual: r,
	}
}

func assertMatrixNear(t *testing.T, want, got mat.Matrix, tol float64, name string) {
	t.Helper()
	assert.True(t, mat.EqualApprox(want, got, tol), "%s:\nwant %v\ngot  %v",
		name, mat.Formatted(want, mat.Squeeze()), mat.Formatted(got, mat.Squeeze()))
}

func TestKroneckerMatchesDense(t *testing.T) {
	rng := testutil.Seed(t, 0)
	for _, dims := range [][2]int{{1, 1}, {5, 1}, {1, 3}, {6, 2}, {7, 3}} {
		p := randProblem(rng, dims[0], dims[1])

		want, err := linalg.NewDenseSolver().Solve(p)
		require.NoError(t, err)
		got, err := linalg.NewKroneckerSolver().Solve(p)
		require.NoError(t, err)

		assert.InDelta(t, want.LogDet, got.LogDet, 1e-8, "logdet %v", dims)
		assert.InDelta(t, want.Quad, got.Quad, 1e-8, "quad %v", dims)
		assertMatrixNear(t, want.Alpha, got.Alpha, 1e-8, "alpha")
		assertMatrixNear(t, want.DData, got.DData, 1e-8, "dData")
		assertMatrixNear(t, want.DTask, got.DTask, 1e-8, "dTask")
		assertMatrixNear(t, want.DNoise, got.DNoise, 1e-8, "dNoise")
	}
}

// objective evaluates ½ rᵗK⁻¹r + ½ log|K| with the dense solver.
func objective(t *testing.T, p linalg.Problem) float64 {
	t.Helper()
	sol, err := linalg.NewDenseSolver().Solve(p)
	require.NoError(t, err)
	return 0.5*sol.Quad + 0.5*sol.LogDet
}

// perturb returns a copy of m with entries (i, j) and (j, i) shifted by h.
func perturb(m mat.Symmetric, i, j int, h float64) *mat.SymDense {
	n := m.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	out.CopySym(m)
	out.SetSym(i, j, out.At(i, j)+h)
	return out
}

func TestSolutionGradientsMatchFiniteDifferences(t *testing.T) {
	rng := testutil.Seed(t, 1)
	p := randProblem(rng, 3, 2)
	sol, err := linalg.NewKroneckerSolver().Solve(p)
	require.NoError(t, err)

	const h = 1e-6
	// A symmetric perturbation of an off-diagonal pair moves f by the sum
	// of both entries' gradients.
	check := func(name string, grad *mat.Dense, with func(i, j int, h float64) linalg.Problem) {
		r, _ := grad.Dims()
		for i := 0; i < r; i++ {
			for j := i; j < r; j++ {
				fd := (objective(t, with(i, j, h)) - objective(t, with(i, j, -h))) / (2 * h)
				want := grad.At(i, j)
				if i != j {
					want += grad.At(j, i)
				}
				assert.InDelta(t, fd, want, 1e-5, "%s[%d,%d]", name, i, j)
			}
		}
	}
	check("data", sol.DData, func(i, j int, h float64) linalg.Problem {
		q := p
		q.Data = perturb(p.Data, i, j, h)
		return q
	})
	check("task", sol.DTask, func(i, j int, h float64) linalg.Problem {
		q := p
		q.Task = perturb(p.Task, i, j, h)
		return q
	})
	check("noise", sol.DNoise, func(i, j int, h float64) linalg.Problem {
		q := p
		q.Noise = perturb(p.Noise, i, j, h)
		return q
	})
}

func TestKroneckerRejectsIndefiniteNoise(t *testing.T) {
	rng := testutil.Seed(t, 2)
	p := randProblem(rng, 3, 2)
	p.Noise = mat.NewSymDense(2, []float64{1, 0, 0, -1})

	_, err := linalg.NewKroneckerSolver().Solve(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, linalg.ErrNumerical))

	var numErr *linalg.NumericalError
	require.ErrorAs(t, err, &numErr)
	assert.Equal(t, "noise whitening", numErr.Op)
}

func TestSolversRejectMismatchedResidual(t *testing.T) {
	rng := testutil.Seed(t, 3)
	p := randProblem(rng, 3, 2)
	p.Residual = mat.NewDense(3, 3, nil)

	for _, s := range []linalg.Solver{linalg.NewKroneckerSolver(), linalg.NewDenseSolver()} {
		_, err := s.Solve(p)
		assert.ErrorIs(t, err, tensor.ErrShape)
	}
}

func TestJointIsPointMajor(t *testing.T) {
	data := mat.NewSymDense(2, []float64{1, 2, 2, 3})
	task := mat.NewSymDense(2, []float64{10, 20, 20, 30})
	noise := mat.NewSymDense(2, []float64{0.5, 0, 0, 0.5})

	k := linalg.Joint(data, task, noise)
	// row = point*T + task
	assert.Equal(t, 1*10+0.5, k.At(0, 0))
	assert.Equal(t, 1*20.0, k.At(0, 1))
	assert.Equal(t, 2*10.0, k.At(0, 2))
	assert.Equal(t, 3*30+0.5, k.At(3, 3))
	assert.False(t, math.IsNaN(k.At(1, 2)))
	assert.Equal(t, 2*20.0, k.At(1, 2))
}
