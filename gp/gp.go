// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gp

import (
	"github.com/born-ml/structgp/internal/distributions"
	"github.com/born-ml/structgp/internal/likelihood"
	"github.com/born-ml/structgp/internal/linalg"
	"github.com/born-ml/structgp/internal/mll"
	"github.com/born-ml/structgp/internal/models"
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/optim"
	"github.com/born-ml/structgp/internal/tensor"
	"github.com/born-ml/structgp/internal/train"
)

// ModelConfig configures a MultitaskExactGP.
type ModelConfig = models.Config

// MultitaskExactGP is an exact GP over correlated tasks.
type MultitaskExactGP[B tensor.Backend] = models.MultitaskExactGP[B]

// NewMultitaskExactGP builds the model and registers its parameters.
func NewMultitaskExactGP[B tensor.Backend](cfg ModelConfig, backend B) (*MultitaskExactGP[B], error) {
	return models.NewMultitaskExactGP(cfg, backend)
}

// MultitaskNormal is a joint Gaussian over N points and T tasks with a
// Kronecker covariance.
type MultitaskNormal[B tensor.Backend] = distributions.MultitaskNormal[B]

// ExactMarginalLogLikelihood is the negative log evidence per observation.
type ExactMarginalLogLikelihood[B tensor.Backend] = mll.ExactMarginalLogLikelihood[B]

// Loss is one evaluation of the objective.
type Loss[B tensor.Backend] = mll.Loss[B]

// MLLOption configures an ExactMarginalLogLikelihood.
type MLLOption[B tensor.Backend] = mll.Option[B]

// Solver factors a Kronecker-plus-noise covariance.
type Solver = linalg.Solver

// NewExactMarginalLogLikelihood creates the objective for model observed
// through lik.
func NewExactMarginalLogLikelihood[B tensor.Backend](
	lik *likelihood.MultitaskGaussian[B],
	model nn.Module[B],
	opts ...MLLOption[B],
) *ExactMarginalLogLikelihood[B] {
	return mll.NewExactMarginalLogLikelihood(lik, model, opts...)
}

// WithDenseSolver switches the objective to the dense Cholesky reference
// solver.
func WithDenseSolver[B tensor.Backend]() MLLOption[B] {
	return mll.WithSolver[B](linalg.NewDenseSolver())
}

// TrainConfig controls Fit.
type TrainConfig = train.Config

// History records the loss of every iteration.
type History = train.History

// TrainableModel is the part of a model Fit drives.
type TrainableModel[B tensor.Backend] = train.Model[B]

// Fit minimizes objective over the model's parameters.
func Fit[B tensor.Backend](
	model TrainableModel[B],
	objective *ExactMarginalLogLikelihood[B],
	opt optim.Optimizer,
	x, y *tensor.Tensor[float64, B],
	cfg TrainConfig,
) (*History, error) {
	return train.Fit(model, objective, opt, x, y, cfg)
}
