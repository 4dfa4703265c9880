package ops

import "github.com/born-ml/structgp/internal/tensor"

// MatMulOp represents a batched matrix multiplication: output = a @ b.
//
// Backward pass:
//   - d(A@B)/dA = outputGrad @ B^T
//   - d(A@B)/dB = A^T @ outputGrad
//
// Transposes act on the last two axes. When the batch dimensions of a
// and b were broadcast, the gradients are summed back over them.
type MatMulOp struct {
	binary
}

// NewMatMulOp creates a new MatMulOp.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{binary{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

// Backward computes input gradients for matrix multiplication.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]

	bT := backend.Transpose(b, swapLast(len(b.Shape()))...)
	gradA := backend.MatMul(outputGrad, bT)

	aT := backend.Transpose(a, swapLast(len(a.Shape()))...)
	gradB := backend.MatMul(aT, outputGrad)

	return []*tensor.RawTensor{
		reduceBroadcast(gradA, a.Shape(), backend),
		reduceBroadcast(gradB, b.Shape(), backend),
	}
}
