// Package likelihood implements observation models for multitask GPs.
package likelihood

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/born-ml/structgp/internal/distributions"
	"github.com/born-ml/structgp/internal/kernel"
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/prior"
	"github.com/born-ml/structgp/internal/tensor"
)

// Config configures a MultitaskGaussian that owns its noise covariance.
type Config struct {
	nn.BatchOptions `yaml:",inline"`

	NumTasks int `yaml:"num_tasks"`
	Rank     int `yaml:"rank"`

	FactorPrior prior.Prior `yaml:"-"`
	NoisePrior  prior.Prior `yaml:"-"`
	Rand        *rand.Rand  `yaml:"-"`
	Logger      *zap.Logger `yaml:"-"`
}

// MultitaskGaussian adds correlated Gaussian noise to every point:
// observations y_i = f_i + ε_i with ε_i ~ N(0, K_noise) across tasks, so the
// marginal covariance gains I_N ⊗ K_noise.
//
// K_noise is a kernel.TaskCovariance. Slots: "task_noise_covar_factor" and
// "log_noise".
type MultitaskGaussian[B tensor.Backend] struct {
	noise    *kernel.TaskCovariance[B]
	registry *nn.Registry[B]
}

// NewMultitaskGaussian creates a likelihood with its own task covariance.
func NewMultitaskGaussian[B tensor.Backend](cfg Config, backend B) (*MultitaskGaussian[B], error) {
	noise, err := kernel.NewTaskCovariance(kernel.TaskCovarianceConfig{
		BatchOptions: cfg.BatchOptions,
		NumTasks:     cfg.NumTasks,
		Rank:         cfg.Rank,
		FactorPrior:  cfg.FactorPrior,
		NoisePrior:   cfg.NoisePrior,
		Rand:         cfg.Rand,
		Logger:       cfg.Logger,
	}, backend)
	if err != nil {
		return nil, fmt.Errorf("multitask gaussian: %w", err)
	}
	return NewSharedMultitaskGaussian(noise)
}

// NewSharedMultitaskGaussian creates a likelihood reading noise, which may
// also serve as the task block of a multitask kernel.
func NewSharedMultitaskGaussian[B tensor.Backend](noise *kernel.TaskCovariance[B]) (*MultitaskGaussian[B], error) {
	l := &MultitaskGaussian[B]{
		noise:    noise,
		registry: nn.NewRegistry[B](),
	}
	if err := l.registry.Include("", noise.Registry()); err != nil {
		return nil, err
	}
	return l, nil
}

// Registry implements nn.Module.
func (l *MultitaskGaussian[B]) Registry() *nn.Registry[B] {
	return l.registry
}

// TaskCovariance returns the noise parameterization.
func (l *MultitaskGaussian[B]) TaskCovariance() *kernel.TaskCovariance[B] {
	return l.noise
}

// NoiseCovar returns the current [*batch, T, T] noise covariance.
func (l *MultitaskGaussian[B]) NoiseCovar() *tensor.Tensor[float64, B] {
	return l.noise.Covar()
}

// Marginal returns the distribution of observations given the latent
// process.
func (l *MultitaskGaussian[B]) Marginal(latent *distributions.MultitaskNormal[B]) (*distributions.MultitaskNormal[B], error) {
	if latent.NumTasks() != l.noise.NumTasks() {
		return nil, &nn.ConfigError{
			Component: "multitask gaussian",
			Field:     "num_tasks",
			Reason:    fmt.Sprintf("latent has %d tasks, likelihood has %d", latent.NumTasks(), l.noise.NumTasks()),
		}
	}
	marginal, err := latent.WithNoise(l.NoiseCovar())
	if err != nil {
		return nil, fmt.Errorf("multitask gaussian: %w", err)
	}
	return marginal, nil
}
