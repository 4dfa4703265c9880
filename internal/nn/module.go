// Package nn provides the bookkeeping shared by every learnable component:
// parameters, the name-to-parameter registry, batch options and
// configuration errors.
//
// This package provides:
//   - Module interface: anything that owns trainable parameters
//   - Parameter: Trainable tensor with gradient storage
//   - Registry: explicit map from parameter name to (parameter, prior)
//   - BatchOptions: batch shape with the legacy batch-size alias
//   - ConfigError: structural misconfiguration detected at construction
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/born-ml/structgp/internal/tensor"
)

// Module is the base interface for all learnable components.
//
// Modules can be composed; a composite registers its children's
// parameters under a dotted prefix:
//
//	mean.base.constant
//	covar.data.log_lengthscale
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Registry returns the module's named parameters and their priors.
	Registry() *Registry[B]
}

// Parameters returns the module's parameters in registration order.
func Parameters[B tensor.Backend](m Module[B]) []*Parameter[B] {
	return m.Registry().Parameters()
}
