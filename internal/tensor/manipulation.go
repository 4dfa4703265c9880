package tensor

import "fmt"

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
//
// Example:
//
//	t := tensor.Zeros[float64](Shape{12}, backend)
//	reshaped := t.Reshape(3, 4) // Shape: [3, 4]
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	result := t.backend.Reshape(t.raw, Shape(newShape))
	return New[T, B](result, t.backend)
}

// Transpose transposes the tensor by permuting its dimensions.
//
// If axes is empty, reverses all dimensions (for 2D, this is standard transpose).
// Otherwise, axes specifies the permutation.
//
// Example:
//
//	t := tensor.Zeros[float64](Shape{2, 3, 4}, backend)
//	transposed := t.Transpose(2, 0, 1) // Shape: [4, 2, 3]
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	result := t.backend.Transpose(t.raw, axes...)
	return New[T, B](result, t.backend)
}

// MT swaps the last two dimensions (batched matrix transpose).
// Panics if the tensor has fewer than two dimensions.
//
// Example:
//
//	t := tensor.Zeros[float64](Shape{5, 3, 4}, backend)
//	transposed := t.MT() // Shape: [5, 4, 3]
func (t *Tensor[T, B]) MT() *Tensor[T, B] {
	n := len(t.Shape())
	if n < 2 {
		panic(fmt.Sprintf("MT() needs at least 2 dimensions, got %v", t.Shape()))
	}
	axes := make([]int, n)
	for i := range axes {
		axes[i] = i
	}
	axes[n-2], axes[n-1] = axes[n-1], axes[n-2]
	return t.Transpose(axes...)
}

// Expand broadcasts the tensor to shape following BroadcastShapes rules.
//
// Example:
//
//	c := tensor.Zeros[float64](Shape{3, 1}, backend)
//	e := c.Expand(Shape{2, 3, 4}) // Shape: [2, 3, 4]
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	result := t.backend.Expand(t.raw, shape)
	return New[T, B](result, t.backend)
}

// Cat concatenates tensors along dim. All tensors must share a shape
// except along dim; negative dims count from the end.
//
// Example:
//
//	a := tensor.Zeros[float64](Shape{2, 1}, backend)
//	b := tensor.Zeros[float64](Shape{2, 3}, backend)
//	c := tensor.Cat([]*Tensor[float64, B]{a, b}, -1) // Shape: [2, 4]
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	backend := tensors[0].backend
	return New[T, B](backend.Cat(raws, dim), backend)
}

// Unsqueeze adds a dimension of size 1 at the specified position.
// Negative positions count from the end of the result, so -1 appends.
//
// Example:
//
//	x := tensor.Zeros[float64](Shape{2, 3}, backend)
//	y := x.Unsqueeze(1)  // Shape: [2, 1, 3]
//	z := x.Unsqueeze(-3) // Shape: [1, 2, 3]
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	shape := t.Shape()
	dim = NormalizeDim(dim, len(shape)+1)
	newShape := make(Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return t.Reshape(newShape...)
}

// Squeeze removes a dimension of size 1 at the specified position.
// Panics if the dimension size is not 1.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	shape := t.Shape()
	dim = NormalizeDim(dim, len(shape))
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, not 1", dim, shape[dim]))
	}
	newShape := make(Shape, 0, len(shape)-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)
	return t.Reshape(newShape...)
}
