// Package distributions holds the joint Gaussian produced by a multitask
// GP.
package distributions

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/structgp/internal/lazy"
	"github.com/born-ml/structgp/internal/tensor"
)

// MultitaskNormal is a Gaussian over N points and T tasks with mean
// [*batch, N, T] and covariance
//
//	Data ⊗ Task + I_N ⊗ Noise
//
// The noise block is absent for a latent process and attached by a
// likelihood. Flattened vectors are point-major, matching a row-major read
// of the [N, T] mean.
type MultitaskNormal[B tensor.Backend] struct {
	mean  *tensor.Tensor[float64, B]
	covar *lazy.Kronecker[B]
	noise *tensor.Tensor[float64, B]

	batch      tensor.Shape
	meanIndex  *tensor.BatchIndexer
	noiseIndex *tensor.BatchIndexer
}

// NewMultitaskNormal pairs a mean with a Kronecker covariance.
func NewMultitaskNormal[B tensor.Backend](mean *tensor.Tensor[float64, B], covar *lazy.Kronecker[B]) (*MultitaskNormal[B], error) {
	return build(mean, covar, nil)
}

func build[B tensor.Backend](mean *tensor.Tensor[float64, B], covar *lazy.Kronecker[B], noise *tensor.Tensor[float64, B]) (*MultitaskNormal[B], error) {
	ms := mean.Shape()
	if len(ms) < 2 || ms[len(ms)-2] != covar.NumPoints() || ms[len(ms)-1] != covar.NumTasks() {
		return nil, &tensor.ShapeError{
			Op:     "multitask normal",
			Left:   ms.Clone(),
			Right:  covar.Shape(),
			Axis:   -1,
			Reason: fmt.Sprintf("mean must be [*batch, %d, %d]", covar.NumPoints(), covar.NumTasks()),
		}
	}
	shapes := []tensor.Shape{ms.Batch(2), covar.BatchShape()}
	if noise != nil {
		ns := noise.Shape()
		t := covar.NumTasks()
		if len(ns) < 2 || ns[len(ns)-2] != t || ns[len(ns)-1] != t {
			return nil, &tensor.ShapeError{
				Op:     "multitask normal",
				Left:   ns.Clone(),
				Axis:   -1,
				Reason: fmt.Sprintf("noise must be [*batch, %d, %d]", t, t),
			}
		}
		shapes = append(shapes, ns.Batch(2))
	}
	batch, err := tensor.ResolveBatchShapes(shapes...)
	if err != nil {
		return nil, err
	}

	d := &MultitaskNormal[B]{mean: mean, covar: covar, noise: noise, batch: batch}
	if d.meanIndex, err = tensor.NewBatchIndexer(ms.Batch(2), batch); err != nil {
		return nil, err
	}
	if noise != nil {
		if d.noiseIndex, err = tensor.NewBatchIndexer(noise.Shape().Batch(2), batch); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// WithNoise returns a copy of d whose covariance includes I_N ⊗ noise.
// noise has shape [*batch, T, T].
func (d *MultitaskNormal[B]) WithNoise(noise *tensor.Tensor[float64, B]) (*MultitaskNormal[B], error) {
	return build(d.mean, d.covar, noise)
}

// Expand widens the batch of d to batch, which d's batch must broadcast
// to. Only the mean is expanded; covariance and noise keep their own batch
// shapes and are read through broadcast indices.
func (d *MultitaskNormal[B]) Expand(batch tensor.Shape) (*MultitaskNormal[B], error) {
	if _, err := tensor.NewBatchIndexer(d.batch, batch); err != nil {
		return nil, err
	}
	return build(d.mean.Expand(batch.Concat(d.NumPoints(), d.NumTasks())), d.covar, d.noise)
}

// Mean returns the [*batch, N, T] mean.
func (d *MultitaskNormal[B]) Mean() *tensor.Tensor[float64, B] {
	return d.mean
}

// Covariance returns the Kronecker part of the covariance.
func (d *MultitaskNormal[B]) Covariance() *lazy.Kronecker[B] {
	return d.covar
}

// Noise returns the [*batch, T, T] noise block, or nil for a latent
// distribution.
func (d *MultitaskNormal[B]) Noise() *tensor.Tensor[float64, B] {
	return d.noise
}

// BatchShape returns the batch shape resolved across mean and covariance.
func (d *MultitaskNormal[B]) BatchShape() tensor.Shape {
	return d.batch.Clone()
}

// NumPoints returns N.
func (d *MultitaskNormal[B]) NumPoints() int {
	return d.covar.NumPoints()
}

// NumTasks returns T.
func (d *MultitaskNormal[B]) NumTasks() int {
	return d.covar.NumTasks()
}

// MeanBatchIndex maps resolved batch element b to the mean's flat batch
// index.
func (d *MultitaskNormal[B]) MeanBatchIndex(b int) int {
	return d.meanIndex.Index(b)
}

// NoiseBatchIndex maps resolved batch element b to the noise block's flat
// batch index. It returns -1 without a noise block.
func (d *MultitaskNormal[B]) NoiseBatchIndex(b int) int {
	if d.noiseIndex == nil {
		return -1
	}
	return d.noiseIndex.Index(b)
}

// covarIndex maps resolved batch element b into the covariance's own batch.
func (d *MultitaskNormal[B]) covarIndex(b int) int {
	cb := d.covar.BatchShape()
	return tensor.FlatIndex(b, d.batch.ComputeStrides(), tensor.BroadcastStrides(cb, d.batch))
}

// DataBatchIndex maps resolved batch element b to the data factor's flat
// batch index.
func (d *MultitaskNormal[B]) DataBatchIndex(b int) int {
	return d.covar.DataBatchIndex(d.covarIndex(b))
}

// TaskBatchIndex maps resolved batch element b to the task factor's flat
// batch index.
func (d *MultitaskNormal[B]) TaskBatchIndex(b int) int {
	return d.covar.TaskBatchIndex(d.covarIndex(b))
}

// DataBlock returns the N×N data factor used by batch element b.
func (d *MultitaskNormal[B]) DataBlock(b int) *mat.SymDense {
	return d.covar.DataBlock(d.covarIndex(b))
}

// TaskBlock returns the T×T task factor used by batch element b.
func (d *MultitaskNormal[B]) TaskBlock(b int) *mat.SymDense {
	return d.covar.TaskBlock(d.covarIndex(b))
}

// NoiseBlock returns the T×T noise block used by batch element b, or a
// zero matrix without one.
func (d *MultitaskNormal[B]) NoiseBlock(b int) *mat.SymDense {
	t := d.NumTasks()
	if d.noise == nil {
		return mat.NewSymDense(t, nil)
	}
	idx := d.noiseIndex.Index(b)
	return mat.NewSymDense(t, d.noise.Data()[idx*t*t:(idx+1)*t*t])
}

// MeanBlock returns the N×T mean used by batch element b.
func (d *MultitaskNormal[B]) MeanBlock(b int) *mat.Dense {
	n, t := d.NumPoints(), d.NumTasks()
	idx := d.meanIndex.Index(b)
	return mat.NewDense(n, t, d.mean.Data()[idx*n*t:(idx+1)*n*t])
}

// Variance returns the marginal variance of every (point, task) entry,
// shaped [*batch, N, T]. The result is detached from the gradient tape.
func (d *MultitaskNormal[B]) Variance() *tensor.Tensor[float64, B] {
	n, t := d.NumPoints(), d.NumTasks()
	out := tensor.Zeros[float64](d.batch.Concat(n, t), d.mean.Backend())
	dst := out.Data()
	if n == 0 {
		return out
	}
	for b := 0; b < d.batch.NumElements(); b++ {
		data, task, noise := d.DataBlock(b), d.TaskBlock(b), d.NoiseBlock(b)
		for i := 0; i < n; i++ {
			for j := 0; j < t; j++ {
				dst[(b*n+i)*t+j] = data.At(i, i)*task.At(j, j) + noise.At(j, j)
			}
		}
	}
	return out
}
