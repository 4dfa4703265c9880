package cpu

import (
	"fmt"

	"github.com/born-ml/structgp/internal/tensor"
)

// Expand broadcasts the tensor to a new shape.
// Every input dimension must equal its right-aligned target or be 1.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	xShape := x.Shape()

	if len(newShape) < len(xShape) {
		panic(fmt.Sprintf("expand: new shape %v has fewer dimensions than input shape %v",
			newShape, xShape))
	}

	offset := len(newShape) - len(xShape)
	for i, xDim := range xShape {
		newDim := newShape[offset+i]
		if xDim != 1 && xDim != newDim {
			panic(fmt.Sprintf("expand: cannot expand dimension %d from %d to %d",
				i, xDim, newDim))
		}
	}

	result, err := tensor.NewRaw(newShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("expand: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		expandData(result.AsFloat32(), x.AsFloat32(), xShape, newShape)
	case tensor.Float64:
		expandData(result.AsFloat64(), x.AsFloat64(), xShape, newShape)
	default:
		panic(fmt.Sprintf("expand: unsupported dtype %s", x.DType()))
	}

	return result
}
