package kernel_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/structgp/internal/autodiff"
	"github.com/born-ml/structgp/internal/backend/cpu"
	"github.com/born-ml/structgp/internal/kernel"
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/tensor"
	"github.com/born-ml/structgp/internal/testutil"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() adBackend {
	return autodiff.New(cpu.New())
}

func TestRBFValues(t *testing.T) {
	b := newBackend()
	k, err := kernel.NewRBF(kernel.RBFConfig{LogLengthscale: math.Log(2)}, b)
	require.NoError(t, err)

	x1, err := tensor.FromSlice([]float64{0, 0, 1, 0}, tensor.Shape{2, 2}, b)
	require.NoError(t, err)
	x2, err := tensor.FromSlice([]float64{0, 0, 0, 3, 1, 1}, tensor.Shape{3, 2}, b)
	require.NoError(t, err)

	out, err := k.Forward(x1, x2)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 3}, out.Shape())

	rbf := func(sq float64) float64 { return math.Exp(-sq / 8) }
	want := []float64{
		rbf(0), rbf(9), rbf(2),
		rbf(1), rbf(10), rbf(1),
	}
	assert.InDeltaSlice(t, want, out.Data(), 1e-12)
}

func TestRBFBatchBroadcast(t *testing.T) {
	b := newBackend()
	k, err := kernel.NewRBF(kernel.RBFConfig{BatchOptions: nn.BatchOptions{BatchShape: tensor.Shape{2}}}, b)
	require.NoError(t, err)
	require.NoError(t, k.LogLengthscale().SetData([]float64{0, math.Log(3)}))

	rng := testutil.Seed(t, 0)
	x := tensor.Randn[float64](tensor.Shape{4, 1}, rng, b)
	out, err := k.Forward(x, x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 4, 4}, out.Shape())
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 1.0, out.At(0, i, i), 1e-12)
		assert.InDelta(t, 1.0, out.At(1, i, i), 1e-12)
	}
	// Longer lengthscale, higher correlation.
	assert.Greater(t, out.At(1, 0, 1), out.At(0, 0, 1))

	_, err = k.Forward(tensor.Randn[float64](tensor.Shape{3, 4, 1}, rng, b), x)
	assert.ErrorIs(t, err, tensor.ErrShape)

	_, err = k.Forward(x, tensor.Randn[float64](tensor.Shape{4, 2}, rng, b))
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestRBFManyRowsMatchesPairwise(t *testing.T) {
	b := newBackend()
	k, err := kernel.NewRBF(kernel.RBFConfig{BatchOptions: nn.BatchOptions{BatchShape: tensor.Shape{3}}, LogLengthscale: 0.2}, b)
	require.NoError(t, err)

	rng := testutil.Seed(t, 2)
	x1 := tensor.Randn[float64](tensor.Shape{3, 70, 2}, rng, b)
	x2 := tensor.Randn[float64](tensor.Shape{40, 2}, rng, b)
	out, err := k.Forward(x1, x2)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{3, 70, 40}, out.Shape())

	ell2 := math.Exp(0.4)
	for bi := 0; bi < 3; bi++ {
		for i := 0; i < 70; i++ {
			for j := 0; j < 40; j++ {
				var sq float64
				for d := 0; d < 2; d++ {
					diff := x1.At(bi, i, d) - x2.At(j, d)
					sq += diff * diff
				}
				require.InDelta(t, math.Exp(-sq/(2*ell2)), out.At(bi, i, j), 1e-12, "batch %d row %d col %d", bi, i, j)
			}
		}
	}
}

func TestRBFLengthscaleGradient(t *testing.T) {
	b := newBackend()
	k, err := kernel.NewRBF(kernel.RBFConfig{LogLengthscale: 0.3}, b)
	require.NoError(t, err)
	x := tensor.Randn[float64](tensor.Shape{5, 2}, testutil.Seed(t, 1), b)

	eval := func() float64 {
		out, err := k.Forward(x, x)
		require.NoError(t, err)
		return out.Sum().Item()
	}

	b.Tape().StartRecording()
	out, err := k.Forward(x, x)
	require.NoError(t, err)
	grads := autodiff.Backward(out.Sum(), b)
	b.Tape().StopRecording()
	b.Tape().Clear()
	got := grads[k.LogLengthscale().Tensor().Raw()].AsFloat64()[0]

	const h = 1e-6
	p := k.LogLengthscale().Data()
	p[0] += h
	up := eval()
	p[0] -= 2 * h
	down := eval()
	p[0] += h
	assert.InDelta(t, (up-down)/(2*h), got, 1e-6)
}

func TestTaskCovariancePSDLaw(t *testing.T) {
	rng := testutil.Seed(t, 0)
	for _, tc := range []struct{ tasks, rank int }{{1, 1}, {2, 1}, {3, 2}, {4, 4}, {2, 3}} {
		b := newBackend()
		cov, err := kernel.NewTaskCovariance(kernel.TaskCovarianceConfig{
			NumTasks: tc.tasks,
			Rank:     tc.rank,
			Rand:     rng,
		}, b)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{tc.tasks, tc.rank}, cov.Factor().Shape())
		assert.Equal(t, tensor.Shape{1}, cov.LogNoise().Shape())

		for _, logNoise := range []float64{-3, 0, 1.5} {
			require.NoError(t, cov.LogNoise().SetData([]float64{logNoise}))
			k := cov.Covar()
			require.Equal(t, tensor.Shape{tc.tasks, tc.tasks}, k.Shape())

			var es mat.EigenSym
			require.True(t, es.Factorize(mat.NewSymDense(tc.tasks, k.Data()), false))
			floor := math.Exp(logNoise)
			for _, ev := range es.Values(nil) {
				assert.GreaterOrEqual(t, ev, floor-1e-9, "tasks=%d rank=%d", tc.tasks, tc.rank)
			}
		}
	}
}

func TestTaskCovarianceReflectsUpdates(t *testing.T) {
	b := newBackend()
	cov, err := kernel.NewTaskCovariance(kernel.TaskCovarianceConfig{NumTasks: 2}, b)
	require.NoError(t, err)

	require.NoError(t, cov.Factor().SetData([]float64{1, 2}))
	assert.InDeltaSlice(t, []float64{2, 2, 2, 5}, cov.Covar().Data(), 1e-12)

	require.NoError(t, cov.LogNoise().SetData([]float64{math.Log(3)}))
	assert.InDeltaSlice(t, []float64{4, 2, 2, 7}, cov.Covar().Data(), 1e-12)
}

func TestTaskCovarianceBatched(t *testing.T) {
	b := newBackend()
	cov, err := kernel.NewTaskCovariance(kernel.TaskCovarianceConfig{
		BatchOptions: nn.BatchOptions{BatchSize: nn.Size(3)},
		NumTasks:     2,
		Rank:         1,
	}, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2, 1}, cov.Factor().Shape())
	assert.Equal(t, tensor.Shape{3, 1}, cov.LogNoise().Shape())
	assert.Equal(t, tensor.Shape{3, 2, 2}, cov.Covar().Shape())
}

func TestTaskCovarianceConfig(t *testing.T) {
	b := newBackend()

	_, err := kernel.NewTaskCovariance(kernel.TaskCovarianceConfig{NumTasks: 0}, b)
	assert.ErrorIs(t, err, nn.ErrConfig)

	_, err = kernel.NewTaskCovariance(kernel.TaskCovarianceConfig{NumTasks: 2, Rank: -1}, b)
	assert.ErrorIs(t, err, nn.ErrConfig)

	core, logs := observer.New(zapcore.WarnLevel)
	cov, err := kernel.NewTaskCovariance(kernel.TaskCovarianceConfig{
		NumTasks: 2,
		Rank:     3,
		Logger:   zap.New(core),
	}, b)
	require.NoError(t, err, "rank > T is only a warning")
	assert.Equal(t, 3, cov.Rank())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(3), logs.All()[0].ContextMap()["rank"])

	assert.Equal(t, []string{"task_noise_covar_factor", "log_noise"}, cov.Registry().Names())
}

func TestMultitaskKernelForward(t *testing.T) {
	b := newBackend()
	data, err := kernel.NewRBF(kernel.RBFConfig{}, b)
	require.NoError(t, err)
	task, err := kernel.NewTaskCovariance(kernel.TaskCovarianceConfig{NumTasks: 2}, b)
	require.NoError(t, err)
	k, err := kernel.NewMultitask[adBackend](data, task)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"data.log_lengthscale",
		"task.task_noise_covar_factor",
		"task.log_noise",
	}, k.Registry().Names())

	x := tensor.Randn[float64](tensor.Shape{3, 1}, testutil.Seed(t, 2), b)
	cov, err := k.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{6, 6}, cov.Shape())

	kd, err := data.Forward(x, x)
	require.NoError(t, err)
	kt := task.Covar()
	for row := 0; row < 6; row++ {
		for col := 0; col < 6; col++ {
			ti, pi := cov.Locate(row)
			tj, pj := cov.Locate(col)
			assert.InDelta(t, kd.At(pi, pj)*kt.At(ti, tj), cov.At(0, row, col), 1e-12)
		}
	}

	empty, err := k.Forward(tensor.Zeros[float64](tensor.Shape{0, 1}, b))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{0, 0}, empty.Shape())
	assert.Equal(t, 0, empty.NumPoints())
}

func TestMultitaskKernelRejectsBatchMismatch(t *testing.T) {
	b := newBackend()
	data, err := kernel.NewRBF(kernel.RBFConfig{BatchOptions: nn.BatchOptions{BatchShape: tensor.Shape{2}}}, b)
	require.NoError(t, err)
	task, err := kernel.NewTaskCovariance(kernel.TaskCovarianceConfig{
		BatchOptions: nn.BatchOptions{BatchShape: tensor.Shape{3}},
		NumTasks:     2,
	}, b)
	require.NoError(t, err)

	_, err = kernel.NewMultitask[adBackend](data, task)
	assert.ErrorIs(t, err, tensor.ErrShape)
}
