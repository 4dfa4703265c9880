package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - cpu.CPUBackend: pure Go, gonum for float64 matrix products
//   - autodiff.AutodiffBackend: decorator that records every call on a
//     gradient tape before delegating to the wrapped backend
//
// Every method returns a newly allocated result and leaves its inputs
// untouched. Binary element-wise operations broadcast with BroadcastShapes.
// Rank or shape mismatches are programmer errors and panic.
type Backend interface {
	// Element-wise binary operations
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul multiplies the last two dimensions and broadcasts the leading
	// batch dimensions: [*a, M, K] @ [*b, K, N] -> [*broadcast(a, b), M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor // broadcast to shape
	Cat(tensors []*RawTensor, dim int) *RawTensor // concatenate along dimension

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor

	// Reduction operations
	Sum(x *RawTensor) *RawTensor                           // total sum (scalar result)
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor // sum along dimension

	// Metadata
	Name() string
	Device() Device
}
