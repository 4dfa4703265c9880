// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/prior"
	"github.com/born-ml/structgp/internal/tensor"
)

// Parameter is a trainable float64 tensor with gradient storage.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float64, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Registry is an ordered map from parameter name to (parameter, prior).
type Registry[B tensor.Backend] = nn.Registry[B]

// Entry is one registered parameter slot.
type Entry[B tensor.Backend] = nn.Entry[B]

// NewRegistry creates an empty registry.
func NewRegistry[B tensor.Backend]() *Registry[B] {
	return nn.NewRegistry[B]()
}

// BatchOptions sets the batch shape of a component. BatchSize is the
// legacy single-axis alias of BatchShape.
type BatchOptions = nn.BatchOptions

// Size returns a pointer to n for BatchOptions.BatchSize.
func Size(n int) *int {
	return nn.Size(n)
}

// ConfigError reports structural misconfiguration at construction time.
type ConfigError = nn.ConfigError

// ErrConfig matches every *ConfigError with errors.Is.
var ErrConfig = nn.ErrConfig

// Prior is a log density over a parameter's values.
type Prior = prior.Prior

// NewNormalPrior returns a Normal(mu, sigma) prior.
func NewNormalPrior(mu, sigma float64) Prior {
	return prior.NewNormal(mu, sigma)
}

// NewLaplacePrior returns a Laplace(mu, scale) prior.
func NewLaplacePrior(mu, scale float64) Prior {
	return prior.NewLaplace(mu, scale)
}
