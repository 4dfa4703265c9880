package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/structgp/internal/tensor"
)

// MatMul performs batched matrix multiplication over the last two axes.
//
//	[*a, M, K] @ [*b, K, N] -> [*broadcast(a, b), M, N]
//
// Batch dimensions broadcast with the usual right-aligned rules. Float64
// products go through gonum's Dense.Mul; float32 uses a plain triple loop.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) < 2 || len(bShape) < 2 {
		panic(fmt.Sprintf("matmul: need at least 2D tensors, got %v and %v", aShape, bShape))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	m, k := aShape[len(aShape)-2], aShape[len(aShape)-1]
	kAlt, n := bShape[len(bShape)-2], bShape[len(bShape)-1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch %v @ %v", aShape, bShape))
	}

	aBatch, bBatch := aShape.Batch(2), bShape.Batch(2)
	batch, err := tensor.ResolveBatchShape(aBatch, bBatch)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	result, err := tensor.NewRaw(batch.Concat(m, n), a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}
	if m == 0 || n == 0 || k == 0 || batch.NumElements() == 0 {
		return result
	}

	aIdx, err := tensor.NewBatchIndexer(aBatch, batch)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}
	bIdx, err := tensor.NewBatchIndexer(bBatch, batch)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		matmulFloat32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), aIdx, bIdx, m, k, n)
	case tensor.Float64:
		matmulFloat64(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), aIdx, bIdx, m, k, n)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// matmulFloat32 performs naive matrix multiplication for float32.
// C[i,j] = sum_k A[i,k] * B[k,j]
func matmulFloat32(c, a, b []float32, aIdx, bIdx *tensor.BatchIndexer, m, k, n int) {
	for bi := 0; bi < aIdx.Len(); bi++ {
		ao := aIdx.Index(bi) * m * k
		bo := bIdx.Index(bi) * k * n
		co := bi * m * n
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				var sum float32
				for p := 0; p < k; p++ {
					sum += a[ao+i*k+p] * b[bo+p*n+j]
				}
				c[co+i*n+j] = sum
			}
		}
	}
}

// matmulFloat64 multiplies each batch element with gonum. The Dense values
// wrap the tensor buffers directly, so no data is copied.
func matmulFloat64(c, a, b []float64, aIdx, bIdx *tensor.BatchIndexer, m, k, n int) {
	for bi := 0; bi < aIdx.Len(); bi++ {
		ao := aIdx.Index(bi) * m * k
		bo := bIdx.Index(bi) * k * n
		co := bi * m * n
		am := mat.NewDense(m, k, a[ao:ao+m*k])
		bm := mat.NewDense(k, n, b[bo:bo+k*n])
		cm := mat.NewDense(m, n, c[co:co+m*n])
		cm.Mul(am, bm)
	}
}
