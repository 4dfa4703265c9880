// Package ops defines operation interfaces and implementations for automatic differentiation.
//
// Each operation implements the Operation interface, which provides:
//   - Forward pass: computed by the backend
//   - Backward pass: computes gradients for inputs given output gradient
//
// Supported operations:
//   - AddOp, SubOp: element-wise addition and subtraction
//   - MulOp, DivOp: element-wise multiplication and division
//   - MatMulOp: batched matrix multiplication (d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad)
//   - ExpOp: element-wise exponential
//   - MulScalarOp, AddScalarOp: affine maps with a constant scalar
//   - ReshapeOp, TransposeOp, ExpandOp: shape changes
//   - CatOp: concatenation along a dimension
//   - SumOp, SumDimOp: reductions
//
// Every binary operation broadcasts in the forward pass, so every backward
// pass reduces its gradients back to the input shapes.
package ops

import "github.com/born-ml/structgp/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	//
	// Example for AddOp:
	//   inputs: [a, b]
	//   outputGrad: dL/d(a+b)
	//   returns: [dL/d(a+b), dL/d(a+b)] (gradient flows equally to both inputs)
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// unary is the common bookkeeping of single-input operations.
type unary struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// Inputs returns the input tensor.
func (u *unary) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{u.input}
}

// Output returns the output tensor.
func (u *unary) Output() *tensor.RawTensor {
	return u.output
}

// binary is the common bookkeeping of two-input operations.
type binary struct {
	inputs []*tensor.RawTensor // [a, b]
	output *tensor.RawTensor
}

// Inputs returns the input tensors [a, b].
func (b *binary) Inputs() []*tensor.RawTensor {
	return b.inputs
}

// Output returns the output tensor.
func (b *binary) Output() *tensor.RawTensor {
	return b.output
}
