package ops

import "github.com/born-ml/structgp/internal/tensor"

// CatOp represents a concatenation operation along a dimension.
//
// Forward: output = Cat([input1, input2, ...], dim)
//
// Backward:
//
//	Split gradOutput along dim at the input boundaries; each input receives
//	the slice it contributed.
type CatOp struct {
	inputs []*tensor.RawTensor
	dim    int
	output *tensor.RawTensor
}

// NewCatOp creates a new cat operation.
func NewCatOp(inputs []*tensor.RawTensor, dim int, output *tensor.RawTensor) *CatOp {
	return &CatOp{
		inputs: append([]*tensor.RawTensor(nil), inputs...),
		dim:    tensor.NormalizeDim(dim, len(output.Shape())),
		output: output,
	}
}

// Inputs returns the input tensors.
func (op *CatOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor.
func (op *CatOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward slices the output gradient back into one gradient per input.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	gradShape := outputGrad.Shape()
	offset := 0
	for i, in := range op.inputs {
		shape := in.Shape()
		grad, err := tensor.NewRaw(shape, outputGrad.DType(), backend.Device())
		if err != nil {
			panic(err)
		}
		switch outputGrad.DType() {
		case tensor.Float32:
			sliceAlong(grad.AsFloat32(), outputGrad.AsFloat32(), shape, gradShape, op.dim, offset)
		case tensor.Float64:
			sliceAlong(grad.AsFloat64(), outputGrad.AsFloat64(), shape, gradShape, op.dim, offset)
		default:
			panic("cat backward: unsupported dtype")
		}
		grads[i] = grad
		offset += shape[op.dim]
	}
	return grads
}

// sliceAlong fills dst with the block of src that starts at offset along dim.
func sliceAlong[T tensor.DType](dst, src []T, dstShape, srcShape tensor.Shape, dim, offset int) {
	dstStrides := dstShape.ComputeStrides()
	srcStrides := srcShape.ComputeStrides()
	for i := range dst {
		temp := i
		srcIdx := 0
		for d := range dstShape {
			coord := temp / dstStrides[d]
			temp %= dstStrides[d]
			if d == dim {
				coord += offset
			}
			srcIdx += coord * srcStrides[d]
		}
		dst[i] = src[srcIdx]
	}
}
