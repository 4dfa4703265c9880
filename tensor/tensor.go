// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/structgp/internal/tensor"
)

// DType is the element type constraint (float32 or float64).
type DType = tensor.DType

// DataType is the runtime element type of a RawTensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device is where tensor data lives.
type Device = tensor.Device

// CPU is the only device.
const CPU Device = tensor.CPU

// Shape is the list of dimensions of a tensor.
type Shape = tensor.Shape

// Backend executes tensor operations.
type Backend = tensor.Backend

// Tensor is a typed tensor bound to a backend.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// RawTensor is untyped tensor storage. Gradients are keyed by *RawTensor.
type RawTensor = tensor.RawTensor

// ShapeError reports batch or trailing dimensions that cannot be combined.
type ShapeError = tensor.ShapeError

// ErrShape matches every *ShapeError with errors.Is.
var ErrShape = tensor.ErrShape

// BatchIndexer maps a flat index of a broadcast batch to the flat index
// of one operand.
type BatchIndexer = tensor.BatchIndexer

// ResolveBatchShape broadcasts two batch shapes.
func ResolveBatchShape(a, b Shape) (Shape, error) {
	return tensor.ResolveBatchShape(a, b)
}

// ResolveBatchShapes broadcasts any number of batch shapes.
func ResolveBatchShapes(shapes ...Shape) (Shape, error) {
	return tensor.ResolveBatchShapes(shapes...)
}

// NewBatchIndexer indexes operand shape in into the broadcast shape out.
func NewBatchIndexer(in, out Shape) (*BatchIndexer, error) {
	return tensor.NewBatchIndexer(in, out)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full(shape, value, b)
}

// Randn draws standard normal values from rng.
func Randn[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	return tensor.Randn[T](shape, rng, b)
}

// Linspace creates n evenly spaced values on [start, stop].
func Linspace[T DType, B Backend](start, stop T, n int, b B) *Tensor[T, B] {
	return tensor.Linspace(start, stop, n, b)
}

// Eye creates an n×n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	return tensor.Eye[T](n, b)
}

// Cat concatenates tensors along dim.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	return tensor.Cat(tensors, dim)
}
