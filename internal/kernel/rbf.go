package kernel

import (
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/parallel"
	"github.com/born-ml/structgp/internal/prior"
	"github.com/born-ml/structgp/internal/tensor"
)

// distanceRowsPerWorker is the smallest number of distance rows handed to
// one goroutine.
const distanceRowsPerWorker = 32

// RBFConfig configures an RBF kernel.
type RBFConfig struct {
	nn.BatchOptions `yaml:",inline"`

	// LogLengthscale is the initial log lengthscale (default 0).
	LogLengthscale float64 `yaml:"log_lengthscale"`

	// Prior is an optional regularizer on log_lengthscale.
	Prior prior.Prior `yaml:"-"`
}

// RBF is the squared exponential kernel
//
//	k(x, x') = exp(-‖x - x'‖² / (2ℓ²)),  ℓ = exp(log_lengthscale)
//
// with parameter slot "log_lengthscale" of shape [*batch, 1, 1].
type RBF[B tensor.Backend] struct {
	batch          tensor.Shape
	logLengthscale *nn.Parameter[B]
	registry       *nn.Registry[B]
}

// NewRBF creates an RBF kernel.
func NewRBF[B tensor.Backend](cfg RBFConfig, backend B) (*RBF[B], error) {
	batch, err := cfg.Resolve("rbf kernel")
	if err != nil {
		return nil, err
	}
	k := &RBF[B]{
		batch:          batch,
		logLengthscale: nn.NewParameter("log_lengthscale", tensor.Full(batch.Concat(1, 1), cfg.LogLengthscale, backend)),
		registry:       nn.NewRegistry[B](),
	}
	if err := k.registry.Register("log_lengthscale", k.logLengthscale, cfg.Prior); err != nil {
		return nil, err
	}
	return k, nil
}

// Registry implements nn.Module.
func (k *RBF[B]) Registry() *nn.Registry[B] {
	return k.registry
}

// BatchShape implements Kernel.
func (k *RBF[B]) BatchShape() tensor.Shape {
	return k.batch.Clone()
}

// LogLengthscale returns the lengthscale parameter.
func (k *RBF[B]) LogLengthscale() *nn.Parameter[B] {
	return k.logLengthscale
}

// Forward implements Kernel.
func (k *RBF[B]) Forward(x1, x2 *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	halfDist, err := scaledSquaredDistance(x1, x2, k.batch, -0.5)
	if err != nil {
		return nil, err
	}
	// -½‖x - x'‖² / ℓ²
	invSq := k.logLengthscale.Tensor().MulScalar(-2).Exp()
	return halfDist.Mul(invSq).Exp(), nil
}

// scaledSquaredDistance returns scale·‖x1_i - x2_j‖² with shape
// [*resolved, N, M], where the batch is resolved across params, x1 and x2.
// The inputs are not learnable, so the result is built directly rather
// than through backend operations.
func scaledSquaredDistance[B tensor.Backend](
	x1, x2 *tensor.Tensor[float64, B],
	params tensor.Shape,
	scale float64,
) (*tensor.Tensor[float64, B], error) {
	s1, s2 := x1.Shape(), x2.Shape()
	if len(s1) < 2 || len(s2) < 2 {
		return nil, &tensor.ShapeError{Op: "kernel", Left: s1.Clone(), Right: s2.Clone(), Axis: -1, Reason: "inputs must be [*batch, N, D]"}
	}
	d := s1[len(s1)-1]
	if s2[len(s2)-1] != d {
		return nil, &tensor.ShapeError{
			Op:     "kernel",
			Left:   s1.Clone(),
			Right:  s2.Clone(),
			Axis:   -1,
			Reason: "input dimensions differ",
		}
	}
	batch, err := tensor.ResolveBatchShapes(params, s1.Batch(2), s2.Batch(2))
	if err != nil {
		return nil, err
	}
	idx1, err := tensor.NewBatchIndexer(s1.Batch(2), batch)
	if err != nil {
		return nil, err
	}
	idx2, err := tensor.NewBatchIndexer(s2.Batch(2), batch)
	if err != nil {
		return nil, err
	}

	n, m := s1[len(s1)-2], s2[len(s2)-2]
	out := tensor.Zeros[float64](batch.Concat(n, m), x1.Backend())
	dst := out.Data()
	a, c := x1.Data(), x2.Data()
	// One item per output row; rows write disjoint slices of dst.
	cfg := parallel.DefaultConfig()
	cfg.MinChunkSize = distanceRowsPerWorker
	parallel.For(idx1.Len()*n, func(r int) {
		bi, i := r/n, r%n
		off1 := idx1.Index(bi)*n*d + i*d
		off2 := idx2.Index(bi) * m * d
		xi := a[off1 : off1+d]
		row := dst[r*m : (r+1)*m]
		for j := range row {
			xj := c[off2+j*d : off2+(j+1)*d]
			var sq float64
			for k := range xi {
				diff := xi[k] - xj[k]
				sq += diff * diff
			}
			row[j] = scale * sq
		}
	}, cfg)
	return out, nil
}
