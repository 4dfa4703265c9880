package mean

import (
	"fmt"

	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/tensor"
)

// Multitask lays a scalar base mean out across T tasks.
//
// The last axis of the base mean's batch shape is aligned with the tasks.
// When it is absent or 1 the base mean is shared by every task; when it is
// T each task reads its own slice. Forward returns [*batch, N, T].
type Multitask[B tensor.Backend] struct {
	base     Mean[B]
	numTasks int
	registry *nn.Registry[B]
}

// NewMultitask wraps base for numTasks tasks.
func NewMultitask[B tensor.Backend](base Mean[B], numTasks int) (*Multitask[B], error) {
	if numTasks < 1 {
		return nil, &nn.ConfigError{
			Component: "multitask mean",
			Field:     "num_tasks",
			Reason:    fmt.Sprintf("must be at least 1, got %d", numTasks),
		}
	}
	if bs := base.BatchShape(); len(bs) > 0 {
		if last := bs[len(bs)-1]; last != 1 && last != numTasks {
			return nil, &nn.ConfigError{
				Component: "multitask mean",
				Field:     "base.batch_shape",
				Reason:    fmt.Sprintf("task axis of %v must be 1 or %d", bs, numTasks),
			}
		}
	}

	m := &Multitask[B]{
		base:     base,
		numTasks: numTasks,
		registry: nn.NewRegistry[B](),
	}
	if err := m.registry.Include("base", base.Registry()); err != nil {
		return nil, err
	}
	return m, nil
}

// Registry implements nn.Module.
func (m *Multitask[B]) Registry() *nn.Registry[B] {
	return m.registry
}

// NumTasks returns T.
func (m *Multitask[B]) NumTasks() int {
	return m.numTasks
}

// Base returns the wrapped scalar mean.
func (m *Multitask[B]) Base() Mean[B] {
	return m.base
}

// BatchShape returns the base batch shape without its task axis.
func (m *Multitask[B]) BatchShape() tensor.Shape {
	bs := m.base.BatchShape()
	if len(bs) == 0 {
		return bs
	}
	return bs[:len(bs)-1]
}

// Forward evaluates the base mean with a task axis inserted in front of the
// points and moves the tasks last.
func (m *Multitask[B]) Forward(x *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	if _, err := inputBatch("multitask mean", x.Shape()); err != nil {
		return nil, err
	}
	out, err := m.base.Forward(x.Unsqueeze(-3))
	if err != nil {
		return nil, fmt.Errorf("multitask mean: %w", err)
	}
	shape := out.Shape()
	target := shape.Batch(2).Concat(m.numTasks, shape[len(shape)-1])
	return out.Expand(target).MT(), nil
}
