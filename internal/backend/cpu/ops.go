package cpu

import "github.com/born-ml/structgp/internal/tensor"

// applyBinary fills dst[i] = f(a[ia], b[ib]) over the broadcast output.
// When same is set both operands already have the output layout.
func applyBinary[T tensor.DType](
	dst, a, b []T,
	aShape, bShape, outShape tensor.Shape,
	same bool,
	f func(x, y T) T,
) {
	if same {
		for i := range dst {
			dst[i] = f(a[i], b[i])
		}
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := tensor.BroadcastStrides(aShape, outShape)
	bStrides := tensor.BroadcastStrides(bShape, outShape)

	for i := range dst {
		aIdx := tensor.FlatIndex(i, outStrides, aStrides)
		bIdx := tensor.FlatIndex(i, outStrides, bStrides)
		dst[i] = f(a[aIdx], b[bIdx])
	}
}

// applyUnary fills dst[i] = f(src[i]).
func applyUnary[T tensor.DType](dst, src []T, f func(T) T) {
	for i, v := range src {
		dst[i] = f(v)
	}
}

func transposeData[T tensor.DType](dst, src []T, shape tensor.Shape, axes []int) {
	ndim := len(shape)
	srcStrides := shape.ComputeStrides()

	dstShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		dstShape[i] = shape[ax]
	}
	dstStrides := dstShape.ComputeStrides()

	coords := make([]int, ndim)
	for i := range src {
		idx := i
		for dim := 0; dim < ndim; dim++ {
			coords[dim] = idx / srcStrides[dim]
			idx %= srcStrides[dim]
		}

		dstIdx := 0
		for dstDim, srcDim := range axes {
			dstIdx += coords[srcDim] * dstStrides[dstDim]
		}
		dst[dstIdx] = src[i]
	}
}

// expandData broadcasts src of shape inShape into dst of shape outShape.
func expandData[T tensor.DType](dst, src []T, inShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	inStrides := tensor.BroadcastStrides(inShape, outShape)
	for i := range dst {
		dst[i] = src[tensor.FlatIndex(i, outStrides, inStrides)]
	}
}
