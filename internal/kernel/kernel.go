// Package kernel implements GP covariance functions: the RBF data kernel,
// the low-rank-plus-diagonal task covariance and the multitask Kronecker
// composer.
package kernel

import (
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/tensor"
)

// Kernel computes covariance matrices between two sets of inputs.
type Kernel[B tensor.Backend] interface {
	nn.Module[B]

	// BatchShape returns the batch shape of the kernel's parameters.
	BatchShape() tensor.Shape

	// Forward returns K(x1, x2) with shape [*batch, N, M] for inputs
	// [*batch, N, D] and [*batch, M, D].
	Forward(x1, x2 *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error)
}
