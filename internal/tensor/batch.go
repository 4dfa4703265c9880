package tensor

import "fmt"

// ResolveBatchShape combines two batch shapes under right-aligned
// broadcasting. For each aligned axis the result is max(a_i, b_i) when the
// sizes are equal or one of them is 1; missing leading axes count as 1.
//
// Every mean and kernel calls this before composing a stored parameter with
// the batch implied by its input, so one parameter set can serve inputs with
// extra leading batch axes.
//
// Examples:
//
//	[]     , [4, 3] → [4, 3]
//	[3]    , [4, 1] → [4, 3]
//	[2, 3] , [2, 3] → [2, 3]
//	[2]    , [3]    → ShapeError
func ResolveBatchShape(a, b Shape) (Shape, error) {
	n := max(len(a), len(b))
	out := make(Shape, n)
	for i := 0; i < n; i++ {
		aDim := dimFromRight(a, i)
		bDim := dimFromRight(b, i)
		switch {
		case aDim == bDim, bDim == 1:
			out[n-1-i] = aDim
		case aDim == 1:
			out[n-1-i] = bDim
		default:
			return nil, &ShapeError{
				Op:     "resolve batch",
				Left:   a.Clone(),
				Right:  b.Clone(),
				Axis:   n - 1 - i,
				Reason: fmt.Sprintf("%d vs %d", aDim, bDim),
			}
		}
	}
	return out, nil
}

// ResolveBatchShapes folds ResolveBatchShape over any number of shapes.
func ResolveBatchShapes(shapes ...Shape) (Shape, error) {
	out := Shape{}
	for _, s := range shapes {
		var err error
		if out, err = ResolveBatchShape(out, s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// BatchIndexer maps flat indices of a resolved batch shape onto the flat
// batch index of an operand that was broadcast into it.
type BatchIndexer struct {
	outStrides []int
	inStrides  []int
	size       int
}

// NewBatchIndexer builds an indexer from operand batch shape in to the
// resolved batch shape out. in must broadcast to out.
func NewBatchIndexer(in, out Shape) (*BatchIndexer, error) {
	resolved, err := ResolveBatchShape(in, out)
	if err != nil {
		return nil, err
	}
	if !resolved.Equal(out) {
		return nil, &ShapeError{
			Op:     "batch index",
			Left:   in.Clone(),
			Right:  out.Clone(),
			Axis:   -1,
			Reason: "operand does not broadcast to target",
		}
	}
	return &BatchIndexer{
		outStrides: out.ComputeStrides(),
		inStrides:  BroadcastStrides(in, out),
		size:       out.NumElements(),
	}, nil
}

// Len returns the number of batch elements in the resolved shape.
func (bi *BatchIndexer) Len() int {
	return bi.size
}

// Index returns the operand's flat batch index for resolved batch index i.
func (bi *BatchIndexer) Index(i int) int {
	return FlatIndex(i, bi.outStrides, bi.inStrides)
}

// BroadcastStrides computes strides for reading a tensor of shape inShape
// as if it had shape outShape. Broadcast (size 1) and missing leading
// dimensions get stride 0.
func BroadcastStrides(inShape, outShape Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)
	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// FlatIndex converts a flat index in the output layout into the flat index
// of a broadcast input, given the output strides and the input's broadcast
// strides.
func FlatIndex(outIdx int, outStrides, inStrides []int) int {
	flatIdx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flatIdx += coord * inStrides[i]
	}
	return flatIdx
}
