// Package train runs the hyperparameter optimization loop of a GP model.
package train

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/born-ml/structgp/internal/autodiff"
	"github.com/born-ml/structgp/internal/distributions"
	"github.com/born-ml/structgp/internal/mll"
	"github.com/born-ml/structgp/internal/optim"
	"github.com/born-ml/structgp/internal/tensor"
)

// ErrNoTape is returned when the training inputs live on a backend that
// does not record operations.
var ErrNoTape = errors.New("train: backend has no gradient tape")

// Model is the part of a GP model the loop drives.
type Model[B tensor.Backend] interface {
	Forward(x *tensor.Tensor[float64, B]) (*distributions.MultitaskNormal[B], error)
	Train()
}

// Config controls the loop.
type Config struct {
	Iterations int `yaml:"iterations"` // fixed iteration budget
	LogEvery   int `yaml:"log_every"`  // 0 disables progress logs

	Logger *zap.Logger `yaml:"-"` // defaults to zap.NewNop()
}

// History records the loss of every iteration.
type History struct {
	Losses []float64
}

// Final returns the last recorded loss, or 0 for an empty history.
func (h *History) Final() float64 {
	if len(h.Losses) == 0 {
		return 0
	}
	return h.Losses[len(h.Losses)-1]
}

// Fit minimizes objective over the model's parameters for a fixed number
// of iterations. Each iteration zeroes gradients, clears the tape,
// evaluates the model on x, computes the loss against y, backpropagates
// and steps the optimizer.
func Fit[B tensor.Backend](
	model Model[B],
	objective *mll.ExactMarginalLogLikelihood[B],
	opt optim.Optimizer,
	x, y *tensor.Tensor[float64, B],
	cfg Config,
) (*History, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tape := autodiff.TapeOf(x.Backend())
	if tape == nil {
		return nil, ErrNoTape
	}

	model.Train()
	history := &History{Losses: make([]float64, 0, cfg.Iterations)}
	for iter := 1; iter <= cfg.Iterations; iter++ {
		opt.ZeroGrad()
		loss, err := step(model, objective, tape, x, y)
		if err != nil {
			return history, fmt.Errorf("iteration %d: %w", iter, err)
		}
		grads, err := loss.Backward()
		if err != nil {
			return history, fmt.Errorf("iteration %d: %w", iter, err)
		}
		opt.Step(grads)
		history.Losses = append(history.Losses, loss.Value)

		if cfg.LogEvery > 0 && iter%cfg.LogEvery == 0 {
			logger.Info("training",
				zap.Int("iteration", iter),
				zap.Int("iterations", cfg.Iterations),
				zap.Float64("loss", loss.Value),
				zap.Float64("lr", opt.GetLR()),
			)
		}
	}
	tape.Clear()

	logger.Info("training finished",
		zap.Int("iterations", cfg.Iterations),
		zap.Float64("final_loss", history.Final()),
	)
	return history, nil
}

// step records one forward evaluation on a fresh tape.
func step[B tensor.Backend](
	model Model[B],
	objective *mll.ExactMarginalLogLikelihood[B],
	tape *autodiff.GradientTape,
	x, y *tensor.Tensor[float64, B],
) (*mll.Loss[B], error) {
	tape.Clear()
	tape.StartRecording()
	defer tape.StopRecording()

	output, err := model.Forward(x)
	if err != nil {
		return nil, err
	}
	return objective.Forward(output, y)
}
