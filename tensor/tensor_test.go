package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/structgp/backend/cpu"
	"github.com/born-ml/structgp/tensor"
)

func TestResolveBatchShape(t *testing.T) {
	got, err := tensor.ResolveBatchShape(tensor.Shape{4, 1}, tensor.Shape{3})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 3}, got)

	_, err = tensor.ResolveBatchShape(tensor.Shape{2}, tensor.Shape{3})
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestCreation(t *testing.T) {
	b := cpu.New()
	x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, b)
	require.NoError(t, err)

	y := x.Add(tensor.Eye[float64](2, b))
	assert.Equal(t, []float64{2, 2, 3, 5}, y.Data())
	assert.Equal(t, []float64{0, 0.5, 1}, tensor.Linspace[float64](0, 1, 3, b).Data())
	assert.Equal(t, tensor.Float64, tensor.Zeros[float64](tensor.Shape{1}, b).Raw().DType())
}
