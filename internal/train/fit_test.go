package train_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/born-ml/structgp/internal/autodiff"
	"github.com/born-ml/structgp/internal/backend/cpu"
	"github.com/born-ml/structgp/internal/models"
	"github.com/born-ml/structgp/internal/mll"
	"github.com/born-ml/structgp/internal/optim"
	"github.com/born-ml/structgp/internal/synthetic"
	"github.com/born-ml/structgp/internal/tensor"
	"github.com/born-ml/structgp/internal/testutil"
	"github.com/born-ml/structgp/internal/train"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// TestTwoTaskNoiseCorrelation trains the sin/cos model, whose tasks share
// an additive noise term, and checks that the learned task-noise
// covariance has picked up the positive cross-task correlation.
func TestTwoTaskNoiseCorrelation(t *testing.T) {
	rng := testutil.Seed(t, 0)
	b := autodiff.New(cpu.New())
	x, y := synthetic.SinCos(synthetic.SinCosConfig{Points: 100}, rng, b)

	model, err := models.NewMultitaskExactGP(models.Config{NumTasks: 2, Rank: 1, Rand: rng}, b)
	require.NoError(t, err)
	objective := mll.NewExactMarginalLogLikelihood(model.Likelihood(), model)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.1})

	history, err := train.Fit[adBackend](model, objective, opt, x, y, train.Config{Iterations: 50})
	require.NoError(t, err)
	require.Len(t, history.Losses, 50)
	assert.Less(t, history.Final(), history.Losses[0])

	noise := model.Likelihood().NoiseCovar()
	require.Equal(t, tensor.Shape{2, 2}, noise.Shape())
	assert.Greater(t, noise.At(0, 1), 0.05)
	assert.Equal(t, noise.At(0, 1), noise.At(1, 0))
}

func TestFitLogsProgress(t *testing.T) {
	rng := testutil.Seed(t, 0)
	b := autodiff.New(cpu.New())
	x, y := synthetic.SinCos(synthetic.SinCosConfig{Points: 10}, rng, b)

	model, err := models.NewMultitaskExactGP(models.Config{NumTasks: 2, Rand: rng}, b)
	require.NoError(t, err)
	objective := mll.NewExactMarginalLogLikelihood(model.Likelihood(), model)
	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01})

	core, logs := observer.New(zapcore.InfoLevel)
	history, err := train.Fit[adBackend](model, objective, opt, x, y, train.Config{
		Iterations: 6,
		LogEvery:   2,
		Logger:     zap.New(core),
	})
	require.NoError(t, err)
	assert.Len(t, history.Losses, 6)

	assert.Equal(t, 3, logs.FilterMessage("training").Len())
	finished := logs.FilterMessage("training finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, history.Final(), finished[0].ContextMap()["final_loss"])
	assert.Zero(t, b.Tape().NumOps())
}

func TestFitUpdatesAreVisible(t *testing.T) {
	rng := testutil.Seed(t, 3)
	b := autodiff.New(cpu.New())
	x, y := synthetic.SinCos(synthetic.SinCosConfig{Points: 8}, rng, b)

	model, err := models.NewMultitaskExactGP(models.Config{NumTasks: 2, Rand: rng}, b)
	require.NoError(t, err)
	objective := mll.NewExactMarginalLogLikelihood(model.Likelihood(), model)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.05})

	constant, ok := model.Registry().Get("mean.base.constant")
	require.True(t, ok)
	start := append([]float64(nil), constant.Data()...)

	history, err := train.Fit[adBackend](model, objective, opt, x, y, train.Config{Iterations: 2})
	require.NoError(t, err)
	// The second loss is computed from the parameters after the first step.
	assert.NotEqual(t, history.Losses[0], history.Losses[1])
	assert.NotEqual(t, start, constant.Data())
}

func TestFitRequiresTape(t *testing.T) {
	b := cpu.New()
	x, y := synthetic.SinCos(synthetic.SinCosConfig{Points: 4}, testutil.Seed(t, 0), b)
	model, err := models.NewMultitaskExactGP(models.Config{NumTasks: 2}, b)
	require.NoError(t, err)
	objective := mll.NewExactMarginalLogLikelihood(model.Likelihood(), model)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{})

	_, err = train.Fit[*cpu.CPUBackend](model, objective, opt, x, y, train.Config{Iterations: 1})
	assert.ErrorIs(t, err, train.ErrNoTape)
}
