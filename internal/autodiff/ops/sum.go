package ops

import "github.com/born-ml/structgp/internal/tensor"

// SumOp represents a full reduction: output = sum(x).
// grad_x = broadcast(grad_y, x.shape).
type SumOp struct {
	unary
}

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{unary{input: x, output: output}}
}

// Backward broadcasts the scalar output gradient to the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{broadcastTo(outputGrad, op.input.Shape(), backend)}
}

// SumDimOp represents a reduction sum operation along a dimension: output = sum(x, dim).
//
// Forward:
//
//	y = sum(x, dim, keepDim)
//
// Backward:
//
//	grad_x = broadcast(grad_y, x.shape)
//
// If keepDim=false, grad_y is reshaped to put the reduced axis back first.
type SumDimOp struct {
	unary
	dim     int  // dimension to reduce
	keepDim bool // whether to keep dimension
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{unary: unary{input: x, output: output}, dim: dim, keepDim: keepDim}
}

// Backward broadcasts the output gradient back over the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := op.input.Shape()
	grad := outputGrad
	if !op.keepDim {
		kept := inShape.Clone()
		kept[tensor.NormalizeDim(op.dim, len(inShape))] = 1
		grad = backend.Reshape(grad, kept)
	}
	return []*tensor.RawTensor{broadcastTo(grad, inShape, backend)}
}
