package mean

import (
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/tensor"
)

// ConstantGrad is a constant mean for a GP observed together with its
// gradient.
//
// For inputs [*batch, N, D] it returns [*resolved_batch, N, D+1]. Column 0
// holds the constant; columns 1..D are the partial derivatives of a
// constant and are exactly zero.
type ConstantGrad[B tensor.Backend] struct {
	batch    tensor.Shape
	constant *nn.Parameter[B]
	registry *nn.Registry[B]
}

// NewConstantGrad creates a derivative-augmented constant mean initialized
// at zero.
func NewConstantGrad[B tensor.Backend](cfg Config, backend B) (*ConstantGrad[B], error) {
	batch, err := cfg.Resolve("constant grad mean")
	if err != nil {
		return nil, err
	}
	c := &ConstantGrad[B]{
		batch:    batch,
		constant: nn.NewParameter("constant", tensor.Zeros[float64](batch.Concat(1), backend)),
		registry: nn.NewRegistry[B](),
	}
	if err := c.registry.Register("constant", c.constant, cfg.Prior); err != nil {
		return nil, err
	}
	return c, nil
}

// Registry implements nn.Module.
func (c *ConstantGrad[B]) Registry() *nn.Registry[B] {
	return c.registry
}

// BatchShape implements Mean.
func (c *ConstantGrad[B]) BatchShape() tensor.Shape {
	return c.batch.Clone()
}

// Constant returns the constant parameter.
func (c *ConstantGrad[B]) Constant() *nn.Parameter[B] {
	return c.constant
}

// Forward evaluates the augmented mean at x.
func (c *ConstantGrad[B]) Forward(x *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	xBatch, err := inputBatch("constant grad mean", x.Shape())
	if err != nil {
		return nil, err
	}
	d := x.Dim(-1)
	if d == 0 {
		return nil, &tensor.ShapeError{
			Op:     "constant grad mean",
			Left:   x.Shape().Clone(),
			Axis:   len(x.Shape()) - 1,
			Reason: "derivative augmentation needs at least one input dimension",
		}
	}
	combined, err := tensor.ResolveBatchShape(c.batch, xBatch)
	if err != nil {
		return nil, err
	}

	n := x.Dim(-2)
	value := c.constant.Tensor().Reshape(c.batch.Concat(1, 1)...).Expand(combined.Concat(n, 1))
	zeros := tensor.Zeros[float64](combined.Concat(n, d), x.Backend())
	return tensor.Cat([]*tensor.Tensor[float64, B]{value, zeros}, -1), nil
}
