// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// New wraps any backend so that every operation is recorded on a gradient
// tape. Backward walks the tape from a scalar output; BackwardFrom seeds
// several outputs at once, which is how the marginal log likelihood
// injects its closed-form gradients.
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	y := x.Mul(x).Sum()
//	grads := autodiff.Backward(y, backend)
package autodiff

import (
	"github.com/born-ml/structgp/internal/autodiff"
	"github.com/born-ml/structgp/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// BackwardCapable is implemented by backends that own a tape.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients of t with respect to every recorded input.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}

// TapeOf returns the tape of an autodiff backend, or nil for any other
// backend.
func TapeOf(backend tensor.Backend) *GradientTape {
	return autodiff.TapeOf(backend)
}
