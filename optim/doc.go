// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-based optimizers for GP hyperparameters.
//
// Optimizers update nn.Parameter values in place from a gradient map
// returned by a backward pass:
//
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.1})
//	for i := 0; i < 50; i++ {
//	    opt.ZeroGrad()
//	    grads := ... // backward pass
//	    opt.Step(grads)
//	}
//
// A parameter shared between modules appears once in the optimizer and is
// stepped once per Step.
package optim
