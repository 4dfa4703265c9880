// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public tensor API of structgp.
//
// # Overview
//
// Tensors carry an arbitrary number of leading batch dimensions followed by
// the trailing dimensions an operation works on. Batch shapes combine with
// NumPy-style broadcasting:
//
//	ResolveBatchShape(Shape{4, 1}, Shape{3})   // Shape{4, 3}
//	ResolveBatchShape(Shape{2}, Shape{3})      // ShapeError
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/structgp/backend/cpu"
//	    "github.com/born-ml/structgp/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Linspace[float64](0, 1, 50, backend).Reshape(50, 1)
//	    k := x.MatMul(x.MT()) // [50, 50]
//	    _ = k
//	}
//
// All GP components work in float64.
package tensor
