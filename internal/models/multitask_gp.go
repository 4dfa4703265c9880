// Package models assembles means, kernels and likelihoods into GP models.
package models

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/structgp/internal/autodiff"
	"github.com/born-ml/structgp/internal/distributions"
	"github.com/born-ml/structgp/internal/kernel"
	"github.com/born-ml/structgp/internal/likelihood"
	"github.com/born-ml/structgp/internal/linalg"
	"github.com/born-ml/structgp/internal/mean"
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/parallel"
	"github.com/born-ml/structgp/internal/prior"
	"github.com/born-ml/structgp/internal/tensor"
)

// Config configures a MultitaskExactGP.
type Config struct {
	nn.BatchOptions `yaml:",inline"`

	NumTasks int `yaml:"num_tasks"`
	Rank     int `yaml:"rank"` // default 1

	// LogLengthscale is the initial RBF log lengthscale.
	LogLengthscale float64 `yaml:"log_lengthscale"`

	// IndependentTaskCovar gives the kernel its own task covariance instead
	// of sharing the likelihood's.
	IndependentTaskCovar bool `yaml:"independent_task_covar"`

	ConstantPrior    prior.Prior `yaml:"-"`
	LengthscalePrior prior.Prior `yaml:"-"`
	FactorPrior      prior.Prior `yaml:"-"`
	NoisePrior       prior.Prior `yaml:"-"`

	Rand   *rand.Rand  `yaml:"-"`
	Logger *zap.Logger `yaml:"-"`
}

// MultitaskExactGP is an exact GP over T correlated tasks:
//
//	mean:       one constant per task
//	covariance: RBF(x, x) ⊗ K_task
//	likelihood: y = f + ε, ε ~ N(0, K_noise) per point
//
// By default K_task and K_noise are the same TaskCovariance.
type MultitaskExactGP[B tensor.Backend] struct {
	mean       *mean.Multitask[B]
	covar      *kernel.Multitask[B]
	likelihood *likelihood.MultitaskGaussian[B]
	registry   *nn.Registry[B]
	training   bool

	trainX *tensor.Tensor[float64, B]
	trainY *tensor.Tensor[float64, B]
}

// NewMultitaskExactGP builds the model in training mode.
func NewMultitaskExactGP[B tensor.Backend](cfg Config, backend B) (*MultitaskExactGP[B], error) {
	batch, err := cfg.Resolve("multitask gp")
	if err != nil {
		return nil, err
	}
	if cfg.NumTasks < 1 {
		return nil, &nn.ConfigError{
			Component: "multitask gp",
			Field:     "num_tasks",
			Reason:    fmt.Sprintf("must be at least 1, got %d", cfg.NumTasks),
		}
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	batchOpts := nn.BatchOptions{BatchShape: batch}

	base, err := mean.NewConstant(mean.Config{
		BatchOptions: nn.BatchOptions{BatchShape: batch.Concat(cfg.NumTasks)},
		Prior:        cfg.ConstantPrior,
	}, backend)
	if err != nil {
		return nil, err
	}
	mt, err := mean.NewMultitask[B](base, cfg.NumTasks)
	if err != nil {
		return nil, err
	}

	taskCfg := kernel.TaskCovarianceConfig{
		BatchOptions: batchOpts,
		NumTasks:     cfg.NumTasks,
		Rank:         cfg.Rank,
		FactorPrior:  cfg.FactorPrior,
		NoisePrior:   cfg.NoisePrior,
		Rand:         rng,
		Logger:       cfg.Logger,
	}
	noise, err := kernel.NewTaskCovariance(taskCfg, backend)
	if err != nil {
		return nil, err
	}
	lik, err := likelihood.NewSharedMultitaskGaussian(noise)
	if err != nil {
		return nil, err
	}

	task := noise
	if cfg.IndependentTaskCovar {
		if task, err = kernel.NewTaskCovariance(taskCfg, backend); err != nil {
			return nil, err
		}
	}
	rbf, err := kernel.NewRBF(kernel.RBFConfig{
		BatchOptions:   batchOpts,
		LogLengthscale: cfg.LogLengthscale,
		Prior:          cfg.LengthscalePrior,
	}, backend)
	if err != nil {
		return nil, err
	}
	covar, err := kernel.NewMultitask[B](rbf, task)
	if err != nil {
		return nil, err
	}

	m := &MultitaskExactGP[B]{
		mean:       mt,
		covar:      covar,
		likelihood: lik,
		registry:   nn.NewRegistry[B](),
		training:   true,
	}
	for _, child := range []struct {
		prefix string
		module nn.Module[B]
	}{
		{"mean", mt},
		{"likelihood", lik},
		{"covar", covar},
	} {
		if err := m.registry.Include(child.prefix, child.module.Registry()); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry implements nn.Module.
func (m *MultitaskExactGP[B]) Registry() *nn.Registry[B] {
	return m.registry
}

// Parameters returns every trainable parameter once, in registration order.
func (m *MultitaskExactGP[B]) Parameters() []*nn.Parameter[B] {
	return m.registry.Parameters()
}

// NamedParameters returns the registered slots in registration order.
func (m *MultitaskExactGP[B]) NamedParameters() []nn.Entry[B] {
	return m.registry.Entries()
}

// Mean returns the multitask mean.
func (m *MultitaskExactGP[B]) Mean() *mean.Multitask[B] {
	return m.mean
}

// Covar returns the multitask kernel.
func (m *MultitaskExactGP[B]) Covar() *kernel.Multitask[B] {
	return m.covar
}

// Likelihood returns the observation model.
func (m *MultitaskExactGP[B]) Likelihood() *likelihood.MultitaskGaussian[B] {
	return m.likelihood
}

// Train puts the model in training mode.
func (m *MultitaskExactGP[B]) Train() {
	m.training = true
}

// Eval puts the model in evaluation mode, where Predict is available.
func (m *MultitaskExactGP[B]) Eval() {
	m.training = false
}

// Training reports whether the model is in training mode.
func (m *MultitaskExactGP[B]) Training() bool {
	return m.training
}

// SetTrainData records the observations Predict conditions on. x is
// [*batch, N, D] and y is [*batch, N, T].
func (m *MultitaskExactGP[B]) SetTrainData(x, y *tensor.Tensor[float64, B]) {
	m.trainX, m.trainY = x, y
}

// Forward returns the prior distribution of the latent process at x.
func (m *MultitaskExactGP[B]) Forward(x *tensor.Tensor[float64, B]) (*distributions.MultitaskNormal[B], error) {
	mu, err := m.mean.Forward(x)
	if err != nil {
		return nil, err
	}
	k, err := m.covar.Forward(x)
	if err != nil {
		return nil, err
	}
	return distributions.NewMultitaskNormal(mu, k)
}

// Predict returns the posterior mean [*batch, M, T] of the latent process
// at x given the training data. The model must be in evaluation mode. The
// computation is not recorded on a gradient tape.
func (m *MultitaskExactGP[B]) Predict(x *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	if m.training {
		return nil, &nn.ConfigError{Component: "multitask gp", Field: "mode", Reason: "Predict requires Eval()"}
	}
	if m.trainX == nil || m.trainY == nil {
		return nil, &nn.ConfigError{Component: "multitask gp", Field: "train_data", Reason: "SetTrainData was not called"}
	}
	if tape := autodiff.TapeOf(x.Backend()); tape != nil && tape.IsRecording() {
		tape.StopRecording()
		defer tape.StartRecording()
	}

	latent, err := m.Forward(m.trainX)
	if err != nil {
		return nil, err
	}
	marginal, err := m.likelihood.Marginal(latent)
	if err != nil {
		return nil, err
	}
	alpha, err := solveAlpha(marginal, m.trainY)
	if err != nil {
		return nil, err
	}

	// μ* = m(x) + K(x, X)·A·K_task with A = K⁻¹(y - m(X)) as [N, T].
	mu, err := m.mean.Forward(x)
	if err != nil {
		return nil, err
	}
	cross, err := m.covar.Data().Forward(x, m.trainX)
	if err != nil {
		return nil, err
	}
	return mu.Add(cross.MatMul(alpha).MatMul(m.covar.Task().Covar())), nil
}

// solveAlpha returns K⁻¹(y - mean) as [*batch, N, T], where batch is the
// distribution's batch resolved against the batch of y.
func solveAlpha[B tensor.Backend](d *distributions.MultitaskNormal[B], y *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	n, t := d.NumPoints(), d.NumTasks()
	ys := y.Shape()
	if len(ys) < 2 || ys[len(ys)-2] != n || ys[len(ys)-1] != t {
		return nil, &tensor.ShapeError{
			Op:     "predict",
			Left:   ys.Clone(),
			Right:  d.BatchShape().Concat(n, t),
			Axis:   -1,
			Reason: fmt.Sprintf("training targets must be [*batch, %d, %d]", n, t),
		}
	}
	if n == 0 {
		return nil, &tensor.ShapeError{Op: "predict", Left: ys.Clone(), Axis: len(ys) - 2, Reason: "no training points"}
	}
	batch, err := tensor.ResolveBatchShape(d.BatchShape(), ys.Batch(2))
	if err != nil {
		return nil, err
	}
	if !batch.Equal(d.BatchShape()) {
		if d, err = d.Expand(batch); err != nil {
			return nil, err
		}
	}
	yIndex, err := tensor.NewBatchIndexer(ys.Batch(2), batch)
	if err != nil {
		return nil, err
	}

	out := tensor.Zeros[float64](batch.Concat(n, t), y.Backend())
	solver := linalg.NewKroneckerSolver()
	err = parallel.ForErr(yIndex.Len(), func(b int) error {
		yi := yIndex.Index(b)
		residual := mat.NewDense(n, t, nil)
		residual.Sub(mat.NewDense(n, t, y.Data()[yi*n*t:(yi+1)*n*t]), d.MeanBlock(b))
		sol, err := solver.Solve(linalg.Problem{
			Data:     d.DataBlock(b),
			Task:     d.TaskBlock(b),
			Noise:    d.NoiseBlock(b),
			Residual: residual,
		})
		if err != nil {
			return fmt.Errorf("predict: batch %d: %w", b, err)
		}
		dst := mat.NewDense(n, t, out.Data()[b*n*t:(b+1)*n*t])
		dst.Copy(sol.Alpha)
		return nil
	}, parallel.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return out, nil
}
