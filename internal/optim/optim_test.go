package optim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/structgp/internal/autodiff"
	"github.com/born-ml/structgp/internal/backend/cpu"
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/optim"
	"github.com/born-ml/structgp/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func scalarParam(t *testing.T, name string, v float64, b adBackend) *nn.Parameter[adBackend] {
	t.Helper()
	x, err := tensor.FromSlice([]float64{v}, tensor.Shape{1}, b)
	require.NoError(t, err)
	return nn.NewParameter(name, x)
}

func gradOf(p *nn.Parameter[adBackend], g float64) map[*tensor.RawTensor]*tensor.RawTensor {
	raw := tensor.MustRaw(tensor.Shape{1}, tensor.Float64, tensor.CPU)
	raw.AsFloat64()[0] = g
	return map[*tensor.RawTensor]*tensor.RawTensor{p.Tensor().Raw(): raw}
}

func TestSGD_SimpleUpdate(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := scalarParam(t, "x", 2.0, backend)

	optimizer := optim.NewSGD([]*nn.Parameter[adBackend]{param}, optim.SGDConfig{LR: 0.1})
	optimizer.Step(gradOf(param, 1.0))

	// x_new = 2.0 - 0.1 * 1.0
	assert.InDelta(t, 1.9, param.Data()[0], 1e-12)
	require.NotNil(t, param.Grad())
	assert.Equal(t, 1.0, param.Grad().AsFloat64()[0])
}

func TestSGD_WithMomentum(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := scalarParam(t, "x", 1.0, backend)

	optimizer := optim.NewSGD([]*nn.Parameter[adBackend]{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// step 1: v = 1, x = 1 - 0.1
	optimizer.Step(gradOf(param, 1.0))
	assert.InDelta(t, 0.9, param.Data()[0], 1e-12)

	// step 2: v = 0.9 + 1 = 1.9, x = 0.9 - 0.19
	optimizer.Step(gradOf(param, 1.0))
	assert.InDelta(t, 0.71, param.Data()[0], 1e-12)
}

func TestSGD_DefaultsAndLR(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := scalarParam(t, "x", 0, backend)
	optimizer := optim.NewSGD([]*nn.Parameter[adBackend]{param}, optim.SGDConfig{})
	assert.Equal(t, 0.01, optimizer.GetLR())
	optimizer.SetLR(0.5)
	assert.Equal(t, 0.5, optimizer.GetLR())
}

func TestAdam_FirstStepMovesByLR(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := scalarParam(t, "x", 1.0, backend)

	optimizer := optim.NewAdam([]*nn.Parameter[adBackend]{param}, optim.AdamConfig{LR: 0.1})

	// With bias correction m_hat = g and v_hat = g², so the first step is
	// lr * g / (|g| + eps) regardless of the gradient's magnitude.
	optimizer.Step(gradOf(param, 250.0))
	assert.InDelta(t, 0.9, param.Data()[0], 1e-9)
	assert.Equal(t, 1, optimizer.GetTimestep())
}

func TestAdam_BiasCorrection(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := scalarParam(t, "x", 0.0, backend)
	optimizer := optim.NewAdam([]*nn.Parameter[adBackend]{param}, optim.AdamConfig{LR: 0.01})

	grads := []float64{1.0, -0.5}
	var m, v, x float64
	for step, g := range grads {
		optimizer.Step(gradOf(param, g))

		k := float64(step + 1)
		m = 0.9*m + 0.1*g
		v = 0.999*v + 0.001*g*g
		mHat := m / (1 - math.Pow(0.9, k))
		vHat := v / (1 - math.Pow(0.999, k))
		x -= 0.01 * mHat / (math.Sqrt(vHat) + 1e-8)
		assert.InDelta(t, x, param.Data()[0], 1e-12, "step %d", step+1)
	}
}

func TestAdam_ZeroGradAndSkip(t *testing.T) {
	backend := autodiff.New(cpu.New())
	used := scalarParam(t, "used", 1.0, backend)
	unused := scalarParam(t, "unused", 5.0, backend)

	optimizer := optim.NewAdam([]*nn.Parameter[adBackend]{used, unused}, optim.AdamConfig{LR: 0.1})
	optimizer.Step(gradOf(used, 1.0))

	assert.Equal(t, 5.0, unused.Data()[0], "parameter without gradient is untouched")
	assert.Nil(t, unused.Grad())
	assert.NotNil(t, used.Grad())

	optimizer.ZeroGrad()
	assert.Nil(t, used.Grad())
}

func TestAdam_SharedParameterSteppedOnce(t *testing.T) {
	backend := autodiff.New(cpu.New())
	p := scalarParam(t, "shared", 1.0, backend)

	optimizer := optim.NewAdam([]*nn.Parameter[adBackend]{p, p}, optim.AdamConfig{LR: 0.1})
	optimizer.Step(gradOf(p, 1.0))
	assert.InDelta(t, 0.9, p.Data()[0], 1e-9)
}

// TestConvergence_SimpleQuadratic minimizes (x - 3)² through the tape.
func TestConvergence_SimpleQuadratic(t *testing.T) {
	backend := autodiff.New(cpu.New())
	param := scalarParam(t, "x", 0.0, backend)
	target := tensor.Full[float64](tensor.Shape{1}, 3.0, backend)

	optimizer := optim.NewAdam([]*nn.Parameter[adBackend]{param}, optim.AdamConfig{LR: 0.1})
	tape := backend.Tape()

	for range 300 {
		tape.Clear()
		tape.StartRecording()
		diff := param.Tensor().Sub(target)
		loss := diff.Mul(diff)
		grads := autodiff.Backward(loss, backend)
		tape.StopRecording()

		optimizer.ZeroGrad()
		optimizer.Step(grads)
	}

	assert.InDelta(t, 3.0, param.Data()[0], 1e-2)
}
