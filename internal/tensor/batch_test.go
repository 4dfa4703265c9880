package tensor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBatchShape(t *testing.T) {
	tests := []struct {
		name string
		a, b Shape
		want Shape
	}{
		{"both empty", Shape{}, Shape{}, Shape{}},
		{"empty left", Shape{}, Shape{4, 3}, Shape{4, 3}},
		{"empty right", Shape{2}, Shape{}, Shape{2}},
		{"ones broadcast", Shape{3}, Shape{4, 1}, Shape{4, 3}},
		{"equal", Shape{2, 3}, Shape{2, 3}, Shape{2, 3}},
		{"leading axes", Shape{1, 3}, Shape{5, 2, 1}, Shape{5, 2, 3}},
		{"zero sized", Shape{0}, Shape{1}, Shape{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBatchShape(tt.a, tt.b)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ResolveBatchShape(%v, %v) mismatch (-want +got):\n%s", tt.a, tt.b, diff)
			}
		})
	}
}

func TestResolveBatchShapeIncompatible(t *testing.T) {
	_, err := ResolveBatchShape(Shape{2}, Shape{3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShape))

	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, 0, shapeErr.Axis)
	assert.Equal(t, Shape{2}, shapeErr.Left)
	assert.Equal(t, Shape{3}, shapeErr.Right)

	_, err = ResolveBatchShape(Shape{4, 2}, Shape{3, 2})
	require.ErrorIs(t, err, ErrShape)
}

func TestResolveBatchShapeLaws(t *testing.T) {
	shapes := []Shape{{}, {1}, {3}, {2, 3}, {4, 1, 5}}
	for _, a := range shapes {
		got, err := ResolveBatchShape(a, a)
		require.NoError(t, err)
		assert.Equal(t, a, got, "resolve(A, A) = A")

		ones := make(Shape, len(a))
		for i := range ones {
			ones[i] = 1
		}
		got, err = ResolveBatchShape(a, ones)
		require.NoError(t, err)
		assert.Equal(t, a, got, "resolve(A, ones) = A")
	}
}

func TestResolveBatchShapes(t *testing.T) {
	got, err := ResolveBatchShapes(Shape{3}, Shape{2, 1}, Shape{})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, got)

	got, err = ResolveBatchShapes()
	require.NoError(t, err)
	assert.Equal(t, Shape{}, got)

	_, err = ResolveBatchShapes(Shape{3}, Shape{2, 1}, Shape{4})
	assert.ErrorIs(t, err, ErrShape)
}

func TestBatchIndexer(t *testing.T) {
	// [3] inside [2, 3]: row index ignored.
	bi, err := NewBatchIndexer(Shape{3}, Shape{2, 3})
	require.NoError(t, err)
	require.Equal(t, 6, bi.Len())
	got := make([]int, bi.Len())
	for i := range got {
		got[i] = bi.Index(i)
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, got)

	// [2, 1] inside [2, 3]: column index ignored.
	bi, err = NewBatchIndexer(Shape{2, 1}, Shape{2, 3})
	require.NoError(t, err)
	for i := range got {
		got[i] = bi.Index(i)
	}
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, got)

	// Unbatched operand always maps to 0.
	bi, err = NewBatchIndexer(Shape{}, Shape{4})
	require.NoError(t, err)
	for i := 0; i < bi.Len(); i++ {
		assert.Equal(t, 0, bi.Index(i))
	}

	// Scalar batch.
	bi, err = NewBatchIndexer(Shape{}, Shape{})
	require.NoError(t, err)
	assert.Equal(t, 1, bi.Len())
	assert.Equal(t, 0, bi.Index(0))
}

func TestBatchIndexerRejectsNonBroadcast(t *testing.T) {
	_, err := NewBatchIndexer(Shape{2, 3}, Shape{3})
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewBatchIndexer(Shape{4}, Shape{3})
	assert.ErrorIs(t, err, ErrShape)
}
