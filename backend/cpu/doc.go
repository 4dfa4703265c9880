// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// Element-wise operations, reductions and broadcasting are plain Go loops.
// Float64 matrix products go through gonum, so kernel matrices of a few
// thousand points stay fast without CGO.
//
//	backend := cpu.New()
//	x := tensor.Randn[float64](tensor.Shape{100, 2}, rng, backend)
//
// Wrap the backend with autodiff.New to record operations for training.
package cpu
