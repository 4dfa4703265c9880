package mean

import (
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/tensor"
)

// Constant is a learnable constant mean, one value per batch element.
//
// Parameter slot "constant" has shape [*batch, 1]. Forward returns
// [*resolved_batch, N].
type Constant[B tensor.Backend] struct {
	batch    tensor.Shape
	constant *nn.Parameter[B]
	registry *nn.Registry[B]
}

// NewConstant creates a constant mean initialized at zero.
func NewConstant[B tensor.Backend](cfg Config, backend B) (*Constant[B], error) {
	batch, err := cfg.Resolve("constant mean")
	if err != nil {
		return nil, err
	}
	c := &Constant[B]{
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
func (c *Constant[B]) Registry() *nn.Registry[B] {
	return c.registry
}

// BatchShape implements Mean.
func (c *Constant[B]) BatchShape() tensor.Shape {
	return c.batch.Clone()
}

// Constant returns the constant parameter.
func (c *Constant[B]) Constant() *nn.Parameter[B] {
	return c.constant
}

// Forward broadcasts the constant over the points of x.
func (c *Constant[B]) Forward(x *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	xBatch, err := inputBatch("constant mean", x.Shape())
	if err != nil {
		return nil, err
	}
	combined, err := tensor.ResolveBatchShape(c.batch, xBatch)
	if err != nil {
		return nil, err
	}
	return c.constant.Tensor().Expand(combined.Concat(x.Dim(-2))), nil
}
