// Package mean implements GP mean functions: a learnable constant, its
// derivative-augmented form and the multitask composer.
//
// Every mean resolves its parameter batch shape against the batch shape of
// the input with tensor.ResolveBatchShape before composing, so one parameter
// set serves inputs with extra leading batch axes.
package mean

import (
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/prior"
	"github.com/born-ml/structgp/internal/tensor"
)

// Mean maps inputs [*batch, N, D] to mean values.
type Mean[B tensor.Backend] interface {
	nn.Module[B]

	// BatchShape returns the batch shape of the mean's parameters.
	BatchShape() tensor.Shape

	// Forward evaluates the mean at x.
	Forward(x *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error)
}

// Config configures the constant means.
type Config struct {
	nn.BatchOptions `yaml:",inline"`

	// Prior is an optional regularizer on the constant.
	Prior prior.Prior `yaml:"-"`
}

// inputBatch checks that x is [*batch, N, D] and returns its batch shape.
func inputBatch(op string, x tensor.Shape) (tensor.Shape, error) {
	if len(x) < 2 {
		return nil, &tensor.ShapeError{Op: op, Left: x.Clone(), Axis: -1, Reason: "input must be [*batch, N, D]"}
	}
	return x.Batch(2), nil
}
