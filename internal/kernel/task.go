package kernel

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/prior"
	"github.com/born-ml/structgp/internal/tensor"
)

// TaskCovarianceConfig configures a TaskCovariance.
type TaskCovarianceConfig struct {
	nn.BatchOptions `yaml:",inline"`

	NumTasks int `yaml:"num_tasks"`
	Rank     int `yaml:"rank"` // default 1

	FactorPrior prior.Prior `yaml:"-"`
	NoisePrior  prior.Prior `yaml:"-"`

	// Rand draws the initial factor. Defaults to a generator seeded with 0.
	Rand *rand.Rand `yaml:"-"`

	// Logger receives construction warnings. Defaults to zap.NewNop().
	Logger *zap.Logger `yaml:"-"`
}

// TaskCovariance is a T×T covariance between tasks, parameterized as
//
//	F·Fᵗ + exp(log_noise)·I_T
//
// with slots "task_noise_covar_factor" (F, [*batch, T, rank]) and
// "log_noise" ([*batch, 1]). Any real F gives a positive definite matrix.
//
// The same *TaskCovariance may be held by a multitask kernel and a
// multitask likelihood; both then read one set of parameters.
type TaskCovariance[B tensor.Backend] struct {
	batch    tensor.Shape
	numTasks int
	rank     int
	factor   *nn.Parameter[B]
	logNoise *nn.Parameter[B]
	eye      *tensor.Tensor[float64, B]
	registry *nn.Registry[B]
}

// NewTaskCovariance creates a task covariance with a standard normal
// factor and unit noise.
func NewTaskCovariance[B tensor.Backend](cfg TaskCovarianceConfig, backend B) (*TaskCovariance[B], error) {
	batch, err := cfg.Resolve("task covariance")
	if err != nil {
		return nil, err
	}
	if cfg.Rank == 0 {
		cfg.Rank = 1
	}
	if cfg.NumTasks < 1 {
		return nil, &nn.ConfigError{
			Component: "task covariance",
			Field:     "num_tasks",
			Reason:    fmt.Sprintf("must be at least 1, got %d", cfg.NumTasks),
		}
	}
	if cfg.Rank < 1 {
		return nil, &nn.ConfigError{
			Component: "task covariance",
			Field:     "rank",
			Reason:    fmt.Sprintf("must be at least 1, got %d", cfg.Rank),
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Rank > cfg.NumTasks {
		logger.Warn("task covariance rank exceeds number of tasks; extra factor columns are redundant",
			zap.Int("rank", cfg.Rank),
			zap.Int("num_tasks", cfg.NumTasks),
		)
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}

	tc := &TaskCovariance[B]{
		batch:    batch,
		numTasks: cfg.NumTasks,
		rank:     cfg.Rank,
		factor: nn.NewParameter("task_noise_covar_factor",
			tensor.Randn[float64](batch.Concat(cfg.NumTasks, cfg.Rank), rng, backend)),
		logNoise: nn.NewParameter("log_noise", tensor.Zeros[float64](batch.Concat(1), backend)),
		eye:      tensor.Eye[float64](cfg.NumTasks, backend),
		registry: nn.NewRegistry[B](),
	}
	if err := tc.registry.Register("task_noise_covar_factor", tc.factor, cfg.FactorPrior); err != nil {
		return nil, err
	}
	if err := tc.registry.Register("log_noise", tc.logNoise, cfg.NoisePrior); err != nil {
		return nil, err
	}
	return tc, nil
}

// Registry implements nn.Module.
func (tc *TaskCovariance[B]) Registry() *nn.Registry[B] {
	return tc.registry
}

// BatchShape returns the batch shape of the parameters.
func (tc *TaskCovariance[B]) BatchShape() tensor.Shape {
	return tc.batch.Clone()
}

// NumTasks returns T.
func (tc *TaskCovariance[B]) NumTasks() int {
	return tc.numTasks
}

// Rank returns the number of factor columns.
func (tc *TaskCovariance[B]) Rank() int {
	return tc.rank
}

// Factor returns the task_noise_covar_factor parameter.
func (tc *TaskCovariance[B]) Factor() *nn.Parameter[B] {
	return tc.factor
}

// LogNoise returns the log_noise parameter.
func (tc *TaskCovariance[B]) LogNoise() *nn.Parameter[B] {
	return tc.logNoise
}

// Covar returns F·Fᵗ + exp(log_noise)·I with shape [*batch, T, T],
// computed from the current parameter values.
func (tc *TaskCovariance[B]) Covar() *tensor.Tensor[float64, B] {
	f := tc.factor.Tensor()
	noise := tc.logNoise.Tensor().Reshape(tc.batch.Concat(1, 1)...).Exp()
	return f.MatMul(f.MT()).Add(noise.Mul(tc.eye))
}
