// Package synthetic generates toy regression problems.
package synthetic

import (
	"math"
	"math/rand"

	"github.com/born-ml/structgp/internal/tensor"
)

// SinCosTasks is the number of tasks SinCos produces.
const SinCosTasks = 2

// SinCosConfig shapes the two-task sin/cos problem.
type SinCosConfig struct {
	Points      int     `yaml:"points"`       // default 100
	SharedScale float64 `yaml:"shared_scale"` // std of the noise common to both tasks, default 0.5
	TaskScale   float64 `yaml:"task_scale"`   // std of the per-task noise, default 0.1
}

// SinCos returns inputs x [N, 1] evenly spaced on [0, 1] and targets
// y [N, 2] with
//
//	y_0 = sin(2πx) + s + e_0
//	y_1 = cos(2πx) + s + e_1
//
// where s is shared between the tasks at each point. The shared term
// makes the two tasks' observation noise positively correlated.
func SinCos[B tensor.Backend](cfg SinCosConfig, rng *rand.Rand, backend B) (x, y *tensor.Tensor[float64, B]) {
	if cfg.Points == 0 {
		cfg.Points = 100
	}
	if cfg.SharedScale == 0 {
		cfg.SharedScale = 0.5
	}
	if cfg.TaskScale == 0 {
		cfg.TaskScale = 0.1
	}
	n := cfg.Points

	x = tensor.Linspace[float64](0, 1, n, backend).Reshape(n, 1)
	shared := make([]float64, n)
	for i := range shared {
		shared[i] = cfg.SharedScale * rng.NormFloat64()
	}

	y = tensor.Zeros[float64](tensor.Shape{n, SinCosTasks}, backend)
	data := y.Data()
	xs := x.Data()
	for i := 0; i < n; i++ {
		data[i*SinCosTasks] = math.Sin(2*math.Pi*xs[i]) + shared[i]
	}
	for i := 0; i < n; i++ {
		data[i*SinCosTasks] += cfg.TaskScale * rng.NormFloat64()
	}
	for i := 0; i < n; i++ {
		data[i*SinCosTasks+1] = math.Cos(2*math.Pi*xs[i]) + shared[i] + cfg.TaskScale*rng.NormFloat64()
	}
	return x, y
}
