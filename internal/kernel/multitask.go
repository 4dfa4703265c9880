package kernel

import (
	"fmt"

	"github.com/born-ml/structgp/internal/lazy"
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/tensor"
)

// Multitask combines a data kernel with a task covariance into the
// Kronecker covariance Data(x, x) ⊗ Task.
type Multitask[B tensor.Backend] struct {
	data     Kernel[B]
	task     *TaskCovariance[B]
	registry *nn.Registry[B]
}

// NewMultitask composes data and task. Their batch shapes must broadcast.
func NewMultitask[B tensor.Backend](data Kernel[B], task *TaskCovariance[B]) (*Multitask[B], error) {
	if _, err := tensor.ResolveBatchShape(data.BatchShape(), task.BatchShape()); err != nil {
		return nil, fmt.Errorf("multitask kernel: %w", err)
	}
	k := &Multitask[B]{
		data:     data,
		task:     task,
		registry: nn.NewRegistry[B](),
	}
	if err := k.registry.Include("data", data.Registry()); err != nil {
		return nil, err
	}
	if err := k.registry.Include("task", task.Registry()); err != nil {
		return nil, err
	}
	return k, nil
}

// Registry implements nn.Module.
func (k *Multitask[B]) Registry() *nn.Registry[B] {
	return k.registry
}

// NumTasks returns T.
func (k *Multitask[B]) NumTasks() int {
	return k.task.NumTasks()
}

// Data returns the data kernel.
func (k *Multitask[B]) Data() Kernel[B] {
	return k.data
}

// Task returns the task covariance.
func (k *Multitask[B]) Task() *TaskCovariance[B] {
	return k.task
}

// Forward returns the covariance of x with itself in Kronecker form.
func (k *Multitask[B]) Forward(x *tensor.Tensor[float64, B]) (*lazy.Kronecker[B], error) {
	kd, err := k.data.Forward(x, x)
	if err != nil {
		return nil, fmt.Errorf("multitask kernel: %w", err)
	}
	return lazy.NewKronecker(kd, k.task.Covar())
}
