package mll_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/structgp/internal/autodiff"
	"github.com/born-ml/structgp/internal/backend/cpu"
	"github.com/born-ml/structgp/internal/linalg"
	"github.com/born-ml/structgp/internal/mll"
	"github.com/born-ml/structgp/internal/models"
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/parallel"
	"github.com/born-ml/structgp/internal/prior"
	"github.com/born-ml/structgp/internal/synthetic"
	"github.com/born-ml/structgp/internal/tensor"
	"github.com/born-ml/structgp/internal/testutil"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]
type adTensor = tensor.Tensor[float64, adBackend]

type fixture struct {
	backend   adBackend
	model     *models.MultitaskExactGP[adBackend]
	objective *mll.ExactMarginalLogLikelihood[adBackend]
	x, y      *adTensor
}

func newFixture(t *testing.T, cfg models.Config, points int, opts ...mll.Option[adBackend]) *fixture {
	t.Helper()
	b := autodiff.New(cpu.New())
	rng := testutil.Seed(t, 0)
	cfg.Rand = rng
	model, err := models.NewMultitaskExactGP(cfg, b)
	require.NoError(t, err)

	x, y := synthetic.SinCos(synthetic.SinCosConfig{Points: points}, rng, b)
	if batch := model.Mean().BatchShape(); len(batch) > 0 || cfg.NumTasks != synthetic.SinCosTasks {
		// Independent targets per batch element and task.
		y = tensor.Randn[float64](batch.Concat(points, cfg.NumTasks), rng, b)
	}
	ys := y.Shape()
	require.Equal(t, []int{points, cfg.NumTasks}, []int(ys[len(ys)-2:]))
	// Move every parameter off its initial value.
	for _, p := range model.Parameters() {
		data := p.Data()
		for i := range data {
			data[i] += 0.3 * rng.NormFloat64()
		}
	}
	return &fixture{
		backend:   b,
		model:     model,
		objective: mll.NewExactMarginalLogLikelihood(model.Likelihood(), model, opts...),
		x:         x,
		y:         y,
	}
}

func (f *fixture) value(t *testing.T) float64 {
	t.Helper()
	out, err := f.model.Forward(f.x)
	require.NoError(t, err)
	loss, err := f.objective.Forward(out, f.y)
	require.NoError(t, err)
	return loss.Value
}

func (f *fixture) gradients(t *testing.T) (float64, map[*tensor.RawTensor]*tensor.RawTensor) {
	t.Helper()
	tape := f.backend.Tape()
	tape.Clear()
	tape.StartRecording()
	out, err := f.model.Forward(f.x)
	require.NoError(t, err)
	loss, err := f.objective.Forward(out, f.y)
	require.NoError(t, err)
	tape.StopRecording()

	grads, err := loss.Backward()
	require.NoError(t, err)
	tape.Clear()
	return loss.Value, grads
}

func TestGradientsMatchFiniteDifferences(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.Config
	}{
		{"shared", models.Config{NumTasks: 2}},
		{"independent", models.Config{NumTasks: 2, IndependentTaskCovar: true}},
		{"rank two of three", models.Config{NumTasks: 3, Rank: 2}},
		{"with priors", models.Config{
			NumTasks:         2,
			ConstantPrior:    prior.NewNormal(0, 1),
			LengthscalePrior: prior.NewNormal(-1, 0.5),
			FactorPrior:      prior.NewNormal(0, 2),
			NoisePrior:       prior.NewNormal(-2, 1),
		}},
		{"batched", models.Config{NumTasks: 2, BatchOptions: nn.BatchOptions{BatchShape: tensor.Shape{2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.cfg, 6)
			_, grads := f.gradients(t)

			const h = 1e-6
			for _, e := range f.model.NamedParameters() {
				var got []float64
				if g, ok := grads[e.Param.Tensor().Raw()]; ok {
					got = g.AsFloat64()
				} else {
					got = make([]float64, len(e.Param.Data()))
				}
				data := e.Param.Data()
				for i := range data {
					orig := data[i]
					data[i] = orig + h
					up := f.value(t)
					data[i] = orig - h
					down := f.value(t)
					data[i] = orig
					assert.InDelta(t, (up-down)/(2*h), got[i], 1e-6, "%s[%d]", e.Name, i)
				}
			}
		})
	}
}

func TestDenseSolverAgrees(t *testing.T) {
	cfg := models.Config{NumTasks: 2, ConstantPrior: prior.NewNormal(0, 1)}
	structured := newFixture(t, cfg, 8)
	dense := newFixture(t, cfg, 8, mll.WithSolver[adBackend](linalg.NewDenseSolver()))

	v1, g1 := structured.gradients(t)
	v2, g2 := dense.gradients(t)
	assert.InDelta(t, v2, v1, 1e-9)

	p1, p2 := structured.model.Parameters(), dense.model.Parameters()
	require.Len(t, p2, len(p1))
	for i := range p1 {
		assert.InDeltaSlice(t,
			g2[p2[i].Tensor().Raw()].AsFloat64(),
			g1[p1[i].Tensor().Raw()].AsFloat64(),
			1e-8, "parameter %d", i)
	}
}

func TestParallelBatchesMatchSequential(t *testing.T) {
	cfg := models.Config{NumTasks: 2, BatchOptions: nn.BatchOptions{BatchShape: tensor.Shape{4}}}
	f := newFixture(t, cfg, 6, mll.WithParallel[adBackend](parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}))
	v1, g1 := f.gradients(t)

	f.objective = mll.NewExactMarginalLogLikelihood(f.model.Likelihood(), f.model,
		mll.WithParallel[adBackend](parallel.Sequential()))
	v2, g2 := f.gradients(t)

	assert.Equal(t, v2, v1)
	for i, p := range f.model.Parameters() {
		raw := p.Tensor().Raw()
		assert.Equal(t, g2[raw].AsFloat64(), g1[raw].AsFloat64(), "parameter %d", i)
	}
}

func TestSinglePointClosedForm(t *testing.T) {
	b := autodiff.New(cpu.New())
	model, err := models.NewMultitaskExactGP(models.Config{NumTasks: 1}, b)
	require.NoError(t, err)
	objective := mll.NewExactMarginalLogLikelihood(model.Likelihood(), model)

	require.NoError(t, model.Likelihood().TaskCovariance().Factor().SetData([]float64{0.5}))
	x := tensor.Zeros[float64](tensor.Shape{1, 1}, b)
	y, err := tensor.FromSlice([]float64{1.2}, tensor.Shape{1, 1}, b)
	require.NoError(t, err)

	out, err := model.Forward(x)
	require.NoError(t, err)
	loss, err := objective.Forward(out, y)
	require.NoError(t, err)

	// k(x, x) = 1 and the task and noise blocks are both 0.25 + 1.
	k := 2 * 1.25
	want := 0.5*1.2*1.2/k + 0.5*math.Log(k) + 0.5*math.Log(2*math.Pi)
	assert.InDelta(t, want, loss.Value, 1e-12)
}

func TestForwardRejectsBadTargets(t *testing.T) {
	f := newFixture(t, models.Config{NumTasks: 2}, 5)
	out, err := f.model.Forward(f.x)
	require.NoError(t, err)

	_, err = f.objective.Forward(out, tensor.Zeros[float64](tensor.Shape{5, 3}, f.backend))
	assert.ErrorIs(t, err, tensor.ErrShape)

	_, err = f.objective.Forward(out, tensor.Zeros[float64](tensor.Shape{4, 2}, f.backend))
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestForwardRejectsNoPoints(t *testing.T) {
	f := newFixture(t, models.Config{NumTasks: 2}, 5)
	x := tensor.Zeros[float64](tensor.Shape{0, 1}, f.backend)
	out, err := f.model.Forward(x)
	require.NoError(t, err, "evaluating on zero points is allowed")
	assert.Equal(t, 0, out.NumPoints())

	_, err = f.objective.Forward(out, tensor.Zeros[float64](tensor.Shape{0, 2}, f.backend))
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestTargetsWithExtraBatchAxes(t *testing.T) {
	f := newFixture(t, models.Config{NumTasks: 2}, 4)
	out, err := f.model.Forward(f.x)
	require.NoError(t, err)

	single, err := f.objective.Forward(out, f.y)
	require.NoError(t, err)

	stacked := tensor.Zeros[float64](tensor.Shape{3, 4, 2}, f.backend)
	for i := 0; i < 3; i++ {
		copy(stacked.Data()[i*8:], f.y.Data())
	}
	out, err = f.model.Forward(f.x)
	require.NoError(t, err)
	batched, err := f.objective.Forward(out, stacked)
	require.NoError(t, err)

	// Priors are absent, so the batch sum is three times one element.
	assert.InDelta(t, 3*single.Value, batched.Value, 1e-9)
}

func TestBackwardWithoutTape(t *testing.T) {
	b := cpu.New()
	model, err := models.NewMultitaskExactGP(models.Config{NumTasks: 2}, b)
	require.NoError(t, err)
	objective := mll.NewExactMarginalLogLikelihood(model.Likelihood(), model)

	x, y := synthetic.SinCos(synthetic.SinCosConfig{Points: 5}, testutil.Seed(t, 0), b)
	out, err := model.Forward(x)
	require.NoError(t, err)
	loss, err := objective.Forward(out, y)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(loss.Value))

	_, err = loss.Backward()
	assert.ErrorIs(t, err, mll.ErrNoTape)
}
