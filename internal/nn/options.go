package nn

import (
	"fmt"

	"github.com/born-ml/structgp/internal/tensor"
)

// BatchOptions selects how many independent parameter sets a component
// carries.
//
// BatchSize is the legacy single-axis form: BatchSize = &n means
// BatchShape = [n]. Setting both is accepted only when they agree.
type BatchOptions struct {
	BatchShape tensor.Shape `yaml:"batch_shape,omitempty"`
	BatchSize  *int         `yaml:"batch_size,omitempty"`
}

// Resolve returns the effective batch shape. A nil or empty BatchShape
// with no BatchSize yields the empty (unbatched) shape.
func (o BatchOptions) Resolve(component string) (tensor.Shape, error) {
	shape := tensor.Shape{}
	if o.BatchShape != nil {
		shape = o.BatchShape.Clone()
	}
	if err := shape.Validate(); err != nil {
		return nil, &ConfigError{Component: component, Field: "batch_shape", Reason: err.Error()}
	}

	if o.BatchSize == nil {
		return shape, nil
	}

	n := *o.BatchSize
	if n < 0 {
		return nil, &ConfigError{
			Component: component,
			Field:     "batch_size",
			Reason:    fmt.Sprintf("must be non-negative, got %d", n),
		}
	}
	legacy := tensor.Shape{n}
	if len(o.BatchShape) > 0 && !shape.Equal(legacy) {
		return nil, &ConfigError{
			Component: component,
			Field:     "batch_size",
			Reason:    fmt.Sprintf("batch_size %d conflicts with batch_shape %v", n, shape),
		}
	}
	return legacy, nil
}

// Size returns a pointer to n, for filling BatchSize in literals.
func Size(n int) *int {
	return &n
}
