package nn

import (
	"fmt"

	"github.com/born-ml/structgp/internal/tensor"
)

// Parameter represents a trainable parameter.
//
// The tensor's RawTensor identity is stable for the parameter's lifetime:
// optimizers write new values into it in place, so gradient maps keyed by
// RawTensor pointers keep finding it across steps.
//
// Example:
//
//	c := nn.NewParameter("constant", tensor.Zeros[float64](tensor.Shape{1}, backend))
//	c.Tensor().Add(x) // recorded on the tape when backend records
type Parameter[B tensor.Backend] struct {
	name   string                     // Parameter name (e.g., "constant")
	tensor *tensor.Tensor[float64, B] // The parameter tensor
	grad   *tensor.RawTensor          // Gradient (set during backward pass)
}

// NewParameter creates a new trainable parameter.
//
// Parameters:
//   - name: Descriptive name for this parameter (e.g., "log_noise")
//   - tensor: The initialized parameter tensor
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float64, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float64, B] {
	return p.tensor
}

// Shape returns the parameter's shape.
func (p *Parameter[B]) Shape() tensor.Shape {
	return p.tensor.Shape()
}

// Data returns the parameter values (zero-copy).
func (p *Parameter[B]) Data() []float64 {
	return p.tensor.Data()
}

// SetData overwrites the parameter values. The length must match.
func (p *Parameter[B]) SetData(values []float64) error {
	data := p.tensor.Data()
	if len(values) != len(data) {
		return &ConfigError{
			Component: "parameter",
			Field:     p.name,
			Reason:    fmt.Sprintf("expected %d values, got %d", len(data), len(values)),
		}
	}
	copy(data, values)
	return nil
}

// Grad returns the gradient, or nil before the first backward pass.
func (p *Parameter[B]) Grad() *tensor.RawTensor {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.RawTensor) {
	p.grad = grad
}

// CollectGrad picks this parameter's gradient out of a backward pass
// result. It reports whether a gradient was found.
func (p *Parameter[B]) CollectGrad(grads map[*tensor.RawTensor]*tensor.RawTensor) bool {
	g, ok := grads[p.tensor.Raw()]
	if ok {
		p.grad = g
	}
	return ok
}

// ZeroGrad clears the gradient tensor.
//
// This should be called before each training iteration to avoid
// accumulating gradients from previous iterations.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}
