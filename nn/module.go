// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/serialization"
	"github.com/born-ml/structgp/internal/tensor"
)

// Module is anything that owns trainable parameters.
type Module[B tensor.Backend] = nn.Module[B]

// Header is the metadata stored alongside a module's parameters.
type Header = serialization.Header

// Parameters returns the module's parameters in registration order.
func Parameters[B tensor.Backend](m Module[B]) []*Parameter[B] {
	return nn.Parameters(m)
}

// Save writes the module's parameters to a .born file.
//
// Example:
//
//	err := nn.Save(model, "model.born", "multitask_exact_gp", nil)
func Save[B tensor.Backend](module Module[B], path, modelType string, metadata map[string]string) error {
	return serialization.SaveFile(path, module.Registry(), serialization.Options{
		ModelType: modelType,
		Metadata:  metadata,
	})
}

// Load reads parameters from a .born file into module. The module must
// have been constructed with the same configuration as the saved one.
func Load[B tensor.Backend](path string, module Module[B]) (Header, error) {
	return serialization.LoadFile(path, module.Registry())
}
