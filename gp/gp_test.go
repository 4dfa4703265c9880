package gp_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/structgp/autodiff"
	"github.com/born-ml/structgp/backend/cpu"
	"github.com/born-ml/structgp/gp"
	"github.com/born-ml/structgp/optim"
	"github.com/born-ml/structgp/tensor"
)

type backend = *autodiff.Backend[*cpu.Backend]

func TestFitThroughPublicAPI(t *testing.T) {
	b := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(0))
	x := tensor.Linspace[float64](0, 1, 30, b).Reshape(30, 1)
	y := tensor.Randn[float64](tensor.Shape{30, 2}, rng, b)

	model, err := gp.NewMultitaskExactGP(gp.ModelConfig{NumTasks: 2, Rand: rng}, b)
	require.NoError(t, err)
	objective := gp.NewExactMarginalLogLikelihood(model.Likelihood(), model)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.05})

	history, err := gp.Fit[backend](model, objective, opt, x, y, gp.TrainConfig{Iterations: 5})
	require.NoError(t, err)
	require.Len(t, history.Losses, 5)
	assert.Less(t, history.Final(), history.Losses[0])
}

func TestDenseSolverOption(t *testing.T) {
	b := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))
	x := tensor.Linspace[float64](0, 1, 6, b).Reshape(6, 1)
	y := tensor.Randn[float64](tensor.Shape{6, 3}, rng, b)

	model, err := gp.NewMultitaskExactGP(gp.ModelConfig{NumTasks: 3, Rank: 2, Rand: rng}, b)
	require.NoError(t, err)
	kron := gp.NewExactMarginalLogLikelihood(model.Likelihood(), model)
	dense := gp.NewExactMarginalLogLikelihood(model.Likelihood(), model, gp.WithDenseSolver[backend]())

	output, err := model.Forward(x)
	require.NoError(t, err)
	a, err := kron.Forward(output, y)
	require.NoError(t, err)
	c, err := dense.Forward(output, y)
	require.NoError(t, err)
	assert.InDelta(t, a.Value, c.Value, 1e-9)
}

func TestComposeComponents(t *testing.T) {
	b := cpu.New()
	base, err := gp.NewConstantMean(gp.MeanConfig{}, b)
	require.NoError(t, err)
	mu, err := gp.NewMultitaskMean[*cpu.Backend](base, 3)
	require.NoError(t, err)

	rbf, err := gp.NewRBFKernel(gp.RBFConfig{}, b)
	require.NoError(t, err)
	task, err := gp.NewTaskCovariance(gp.TaskCovarianceConfig{NumTasks: 3}, b)
	require.NoError(t, err)
	covar, err := gp.NewMultitaskKernel[*cpu.Backend](rbf, task)
	require.NoError(t, err)

	x := tensor.Linspace[float64](0, 1, 4, b).Reshape(4, 1)
	m, err := mu.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 3}, m.Shape())

	k, err := covar.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{12, 12}, k.Shape())
}
