// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gp composes structured multitask Gaussian process models.
//
// A multitask exact GP over T tasks has a per-task constant mean, a
// covariance RBF(x, x) ⊗ K_task and Gaussian observation noise whose
// cross-task covariance K_noise = F·Fᵀ + diag(exp(log_noise)) is learned.
// By default K_task and K_noise are one shared parameterization.
//
// Fitting maximizes the exact marginal log likelihood:
//
//	backend := autodiff.New(cpu.New())
//	model, err := gp.NewMultitaskExactGP(gp.ModelConfig{NumTasks: 2}, backend)
//	objective := gp.NewExactMarginalLogLikelihood(model.Likelihood(), model)
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.1})
//	history, err := gp.Fit(model, objective, opt, x, y, gp.TrainConfig{Iterations: 50})
//
// The building blocks (means, kernels, the likelihood and the Kronecker
// covariance) are exported for composing other models.
package gp
