// Package optim implements the optimization algorithms used to fit
// hyperparameters.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Design inspired by PyTorch's torch.optim but adapted for Go with type safety.
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.1})
//
//	for range iterations {
//	    optimizer.ZeroGrad()
//	    loss, err := objective.Forward(model.Forward(x), y)
//	    grads, err := loss.Backward()
//	    optimizer.Step(grads)
//	}
package optim

import (
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// Takes a gradient map from a backward pass and updates parameters
	// in place. Parameters absent from the map are left untouched.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// getGradient retrieves a parameter's gradient and records it on the
// parameter. Returns nil if the parameter took no part in the loss.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float64 {
	if param == nil || !param.CollectGrad(grads) {
		return nil
	}
	return param.Grad().AsFloat64()
}

// dedupe drops repeated parameter pointers, keeping first occurrences.
// A parameter shared by two components must be stepped once.
func dedupe[B tensor.Backend](params []*nn.Parameter[B]) []*nn.Parameter[B] {
	seen := make(map[*nn.Parameter[B]]bool, len(params))
	out := make([]*nn.Parameter[B], 0, len(params))
	for _, p := range params {
		if p == nil || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
