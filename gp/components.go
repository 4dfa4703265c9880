// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gp

import (
	"github.com/born-ml/structgp/internal/kernel"
	"github.com/born-ml/structgp/internal/lazy"
	"github.com/born-ml/structgp/internal/likelihood"
	"github.com/born-ml/structgp/internal/mean"
	"github.com/born-ml/structgp/internal/tensor"
)

// Mean is a mean function producing [*batch, N] (or [*batch, N, D+1]).
type Mean[B tensor.Backend] = mean.Mean[B]

// MeanConfig configures the constant means.
type MeanConfig = mean.Config

// ConstantMean is a learnable constant per batch element.
type ConstantMean[B tensor.Backend] = mean.Constant[B]

// NewConstantMean creates a constant mean.
func NewConstantMean[B tensor.Backend](cfg MeanConfig, backend B) (*ConstantMean[B], error) {
	return mean.NewConstant(cfg, backend)
}

// ConstantMeanGrad is a constant mean augmented with zero derivatives.
type ConstantMeanGrad[B tensor.Backend] = mean.ConstantGrad[B]

// NewConstantMeanGrad creates a derivative-augmented constant mean.
func NewConstantMeanGrad[B tensor.Backend](cfg MeanConfig, backend B) (*ConstantMeanGrad[B], error) {
	return mean.NewConstantGrad(cfg, backend)
}

// MultitaskMean evaluates a base mean once per task.
type MultitaskMean[B tensor.Backend] = mean.Multitask[B]

// NewMultitaskMean wraps base into a T-task mean.
func NewMultitaskMean[B tensor.Backend](base Mean[B], numTasks int) (*MultitaskMean[B], error) {
	return mean.NewMultitask(base, numTasks)
}

// Kernel is a covariance function over pairs of inputs.
type Kernel[B tensor.Backend] = kernel.Kernel[B]

// RBFConfig configures an RBF kernel.
type RBFConfig = kernel.RBFConfig

// RBFKernel is the squared-exponential kernel.
type RBFKernel[B tensor.Backend] = kernel.RBF[B]

// NewRBFKernel creates an RBF kernel.
func NewRBFKernel[B tensor.Backend](cfg RBFConfig, backend B) (*RBFKernel[B], error) {
	return kernel.NewRBF(cfg, backend)
}

// TaskCovarianceConfig configures a TaskCovariance.
type TaskCovarianceConfig = kernel.TaskCovarianceConfig

// TaskCovariance is the low-rank-plus-diagonal T×T covariance.
type TaskCovariance[B tensor.Backend] = kernel.TaskCovariance[B]

// NewTaskCovariance creates a task covariance.
func NewTaskCovariance[B tensor.Backend](cfg TaskCovarianceConfig, backend B) (*TaskCovariance[B], error) {
	return kernel.NewTaskCovariance(cfg, backend)
}

// MultitaskKernel is the Kronecker product of a data kernel and a task
// covariance.
type MultitaskKernel[B tensor.Backend] = kernel.Multitask[B]

// NewMultitaskKernel combines data and task.
func NewMultitaskKernel[B tensor.Backend](data Kernel[B], task *TaskCovariance[B]) (*MultitaskKernel[B], error) {
	return kernel.NewMultitask(data, task)
}

// Kronecker is an unmaterialized data ⊗ task covariance.
type Kronecker[B tensor.Backend] = lazy.Kronecker[B]

// LikelihoodConfig configures a MultitaskGaussian likelihood.
type LikelihoodConfig = likelihood.Config

// MultitaskGaussian adds correlated task noise to a latent process.
type MultitaskGaussian[B tensor.Backend] = likelihood.MultitaskGaussian[B]

// NewMultitaskGaussian creates a likelihood with its own task-noise
// covariance.
func NewMultitaskGaussian[B tensor.Backend](cfg LikelihoodConfig, backend B) (*MultitaskGaussian[B], error) {
	return likelihood.NewMultitaskGaussian(cfg, backend)
}

// NewSharedMultitaskGaussian creates a likelihood whose noise is noise.
func NewSharedMultitaskGaussian[B tensor.Backend](noise *TaskCovariance[B]) (*MultitaskGaussian[B], error) {
	return likelihood.NewSharedMultitaskGaussian(noise)
}
