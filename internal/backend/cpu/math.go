package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/structgp/internal/tensor"
)

// Exp computes element-wise exponential: exp(x).
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("exp: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		applyUnary(result.AsFloat32(), x.AsFloat32(), func(v float32) float32 {
			return float32(math.Exp(float64(v)))
		})
	case tensor.Float64:
		applyUnary(result.AsFloat64(), x.AsFloat64(), math.Exp)
	default:
		panic(fmt.Sprintf("exp: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}
