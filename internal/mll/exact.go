// Package mll implements the training objective of exact GP regression.
package mll

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/structgp/internal/autodiff"
	"github.com/born-ml/structgp/internal/distributions"
	"github.com/born-ml/structgp/internal/likelihood"
	"github.com/born-ml/structgp/internal/linalg"
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/parallel"
	"github.com/born-ml/structgp/internal/tensor"
)

// ErrNoTape is returned by Loss.Backward when the backend records no
// operations.
var ErrNoTape = errors.New("mll: backend has no gradient tape")

// Option configures an ExactMarginalLogLikelihood.
type Option[B tensor.Backend] func(*ExactMarginalLogLikelihood[B])

// WithSolver replaces the structured Kronecker solver.
func WithSolver[B tensor.Backend](s linalg.Solver) Option[B] {
	return func(m *ExactMarginalLogLikelihood[B]) {
		m.solver = s
	}
}

// WithParallel sets how batch elements are spread over goroutines. The
// default is parallel.DefaultConfig().
func WithParallel[B tensor.Backend](cfg parallel.Config) Option[B] {
	return func(m *ExactMarginalLogLikelihood[B]) {
		m.parallel = cfg
	}
}

// ExactMarginalLogLikelihood is the negative log marginal likelihood of
// multitask targets, plus the negative log prior of every parameter of
// model, averaged over the N·T observations and summed over the batch.
type ExactMarginalLogLikelihood[B tensor.Backend] struct {
	likelihood *likelihood.MultitaskGaussian[B]
	model      nn.Module[B]
	solver     linalg.Solver
	parallel   parallel.Config
}

// NewExactMarginalLogLikelihood creates the objective for model observed
// through lik.
func NewExactMarginalLogLikelihood[B tensor.Backend](
	lik *likelihood.MultitaskGaussian[B],
	model nn.Module[B],
	opts ...Option[B],
) *ExactMarginalLogLikelihood[B] {
	m := &ExactMarginalLogLikelihood[B]{
		likelihood: lik,
		model:      model,
		solver:     linalg.NewKroneckerSolver(),
		parallel:   parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Loss is one evaluation of the objective.
type Loss[B tensor.Backend] struct {
	// Value is the scalar loss.
	Value float64

	backend B
	seeds   map[*tensor.RawTensor]*tensor.RawTensor
}

// Backward propagates the loss through the operations recorded since the
// tape was last cleared and returns gradients keyed by RawTensor.
func (l *Loss[B]) Backward() (map[*tensor.RawTensor]*tensor.RawTensor, error) {
	tape := autodiff.TapeOf(l.backend)
	if tape == nil {
		return nil, ErrNoTape
	}
	return tape.BackwardFrom(l.seeds, l.backend), nil
}

// Forward evaluates the loss of the latent distribution output against
// target, shaped [*batch, N, T].
//
// The value is
//
//	(Σ_batch ½ rᵗK⁻¹r + ½ log|K| + ½ NT log 2π  −  Σ log p(θ)) / (N·T)
//
// with r = target − mean. Gradients with respect to the mean, the
// covariance factors and the noise block come from the solver and seed
// the tape; prior gradients seed the parameters directly.
func (m *ExactMarginalLogLikelihood[B]) Forward(
	output *distributions.MultitaskNormal[B],
	target *tensor.Tensor[float64, B],
) (*Loss[B], error) {
	marginal, err := m.likelihood.Marginal(output)
	if err != nil {
		return nil, err
	}
	n, t := marginal.NumPoints(), marginal.NumTasks()

	ts := target.Shape()
	if len(ts) < 2 || ts[len(ts)-2] != n || ts[len(ts)-1] != t {
		return nil, &tensor.ShapeError{
			Op:     "marginal log likelihood",
			Left:   ts.Clone(),
			Right:  marginal.Mean().Shape(),
			Axis:   -1,
			Reason: fmt.Sprintf("target must be [*batch, %d, %d]", n, t),
		}
	}
	if n == 0 {
		return nil, &tensor.ShapeError{
			Op:     "marginal log likelihood",
			Left:   ts.Clone(),
			Axis:   len(ts) - 2,
			Reason: "no observations",
		}
	}
	batch, err := tensor.ResolveBatchShape(marginal.BatchShape(), ts.Batch(2))
	if err != nil {
		return nil, err
	}
	if !batch.Equal(marginal.BatchShape()) {
		// Targets with extra batch axes: rebuild the marginal over them.
		marginal, err = marginal.Expand(batch)
		if err != nil {
			return nil, err
		}
	}
	targetIndex, err := tensor.NewBatchIndexer(ts.Batch(2), batch)
	if err != nil {
		return nil, err
	}

	nt := float64(n * t)
	scale := 1 / nt
	seeds := newSeeds()
	cov := marginal.Covariance()
	var total float64

	// Batch elements are independent solves; seeds are accumulated
	// afterwards in batch order.
	sols := make([]*linalg.Solution, targetIndex.Len())
	err = parallel.ForErr(len(sols), func(b int) error {
		ti := targetIndex.Index(b)
		residual := mat.NewDense(n, t, nil)
		residual.Sub(mat.NewDense(n, t, target.Data()[ti*n*t:(ti+1)*n*t]), marginal.MeanBlock(b))

		sol, err := m.solver.Solve(linalg.Problem{
			Data:     marginal.DataBlock(b),
			Task:     marginal.TaskBlock(b),
			Noise:    marginal.NoiseBlock(b),
			Residual: residual,
		})
		if err != nil {
			return fmt.Errorf("marginal log likelihood: batch %d: %w", b, err)
		}
		sols[b] = sol
		return nil
	}, m.parallel)
	if err != nil {
		return nil, err
	}

	for b, sol := range sols {
		total += 0.5*sol.Quad + 0.5*sol.LogDet + 0.5*nt*math.Log(2*math.Pi)

		seeds.add(marginal.Mean().Raw(), marginal.MeanBatchIndex(b), sol.Alpha, -scale)
		seeds.add(cov.Data.Raw(), marginal.DataBatchIndex(b), sol.DData, scale)
		seeds.add(cov.Task.Raw(), marginal.TaskBatchIndex(b), sol.DTask, scale)
		seeds.add(marginal.Noise().Raw(), marginal.NoiseBatchIndex(b), sol.DNoise, scale)
	}

	for _, e := range m.model.Registry().Entries() {
		if e.Prior == nil {
			continue
		}
		values := e.Param.Data()
		grad := make([]float64, len(values))
		for i, v := range values {
			total -= e.Prior.LogProb(v)
			grad[i] = -e.Prior.GradLogProb(v)
		}
		seeds.addFlat(e.Param.Tensor().Raw(), grad, scale)
	}

	return &Loss[B]{
		Value:   total * scale,
		backend: target.Backend(),
		seeds:   seeds.m,
	}, nil
}

// seedMap accumulates gradient seeds per RawTensor.
type seedMap struct {
	m map[*tensor.RawTensor]*tensor.RawTensor
}

func newSeeds() *seedMap {
	return &seedMap{m: make(map[*tensor.RawTensor]*tensor.RawTensor)}
}

func (s *seedMap) buffer(raw *tensor.RawTensor) []float64 {
	g, ok := s.m[raw]
	if !ok {
		g = tensor.MustRaw(raw.Shape(), tensor.Float64, raw.Device())
		s.m[raw] = g
	}
	return g.AsFloat64()
}

// add accumulates scale·m into matrix number idx of raw's trailing block.
func (s *seedMap) add(raw *tensor.RawTensor, idx int, m mat.Matrix, scale float64) {
	r, c := m.Dims()
	dst := s.buffer(raw)[idx*r*c : (idx+1)*r*c]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst[i*c+j] += scale * m.At(i, j)
		}
	}
}

func (s *seedMap) addFlat(raw *tensor.RawTensor, values []float64, scale float64) {
	dst := s.buffer(raw)
	for i, v := range values {
		dst[i] += scale * v
	}
}
