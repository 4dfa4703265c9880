package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float64](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float64](Shape{3, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with standard normal entries drawn from rng.
//
// Callers own the generator, so two tensors built from generators with the
// same seed hold the same values.
//
// Example:
//
//	rng := rand.New(rand.NewSource(0))
//	t := tensor.Randn[float64](Shape{2, 1}, rng, backend)
func Randn[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = T(rng.NormFloat64())
	}
	return t
}

// Linspace creates a 1D tensor of n evenly spaced values over [start, stop].
//
// Example:
//
//	t := tensor.Linspace[float64](0, 1, 5, backend) // [0, 0.25, 0.5, 0.75, 1]
func Linspace[T DType, B Backend](start, stop T, n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	switch n {
	case 0:
	case 1:
		data[0] = start
	default:
		step := (float64(stop) - float64(start)) / float64(n-1)
		for i := range data {
			data[i] = T(float64(start) + step*float64(i))
		}
		data[n-1] = stop
	}
	return t
}

// Eye creates a 2D identity matrix.
//
// Example:
//
//	t := tensor.Eye[float64](3, backend) // 3x3 identity matrix
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	data := t.Data()
	for i := 0; i < n; i++ {
		data[i*n+i] = 1
	}
	return t
}
