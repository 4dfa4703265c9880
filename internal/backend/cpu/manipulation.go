package cpu

import (
	"fmt"

	"github.com/born-ml/structgp/internal/tensor"
)

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same shape except along the concatenation dimension.
// Supports negative dim indexing (-1 = last dimension).
//
// Example:
//
//	a := tensor.Zeros[float64](tensor.Shape{2, 1}, backend)
//	b := tensor.Zeros[float64](tensor.Shape{2, 3}, backend)
//	c := backend.Cat([]*RawTensor{a.Raw(), b.Raw()}, 1) // Shape: [2, 4]
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	dtype := tensors[0].DType()
	dim = tensor.NormalizeDim(dim, ndim)

	totalDim := 0
	for i, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			panic(fmt.Sprintf("cat: tensor %d has %d dimensions, expected %d", i, len(tShape), ndim))
		}
		if t.DType() != dtype {
			panic(fmt.Sprintf("cat: tensor %d has dtype %s, expected %s", i, t.DType(), dtype))
		}
		for d := 0; d < ndim; d++ {
			if d == dim {
				totalDim += tShape[d]
			} else if tShape[d] != shape[d] {
				panic(fmt.Sprintf("cat: tensor %d dimension %d is %d, expected %d", i, d, tShape[d], shape[d]))
			}
		}
	}

	outShape := shape.Clone()
	outShape[dim] = totalDim
	result, err := tensor.NewRaw(outShape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cat: %v", err))
	}

	switch dtype {
	case tensor.Float32:
		offset := 0
		for _, t := range tensors {
			catInto(result.AsFloat32(), t.AsFloat32(), t.Shape(), outShape, dim, offset)
			offset += t.Shape()[dim]
		}
	case tensor.Float64:
		offset := 0
		for _, t := range tensors {
			catInto(result.AsFloat64(), t.AsFloat64(), t.Shape(), outShape, dim, offset)
			offset += t.Shape()[dim]
		}
	default:
		panic(fmt.Sprintf("cat: unsupported dtype %s", dtype))
	}
	return result
}

// catInto copies src into dst, shifted by offset along dim.
func catInto[T tensor.DType](dst, src []T, srcShape, dstShape tensor.Shape, dim, offset int) {
	srcStrides := srcShape.ComputeStrides()
	dstStrides := dstShape.ComputeStrides()
	for i := range src {
		temp := i
		dstIdx := 0
		for d := range srcShape {
			coord := temp / srcStrides[d]
			temp %= srcStrides[d]
			if d == dim {
				coord += offset
			}
			dstIdx += coord * dstStrides[d]
		}
		dst[dstIdx] = src[i]
	}
}
