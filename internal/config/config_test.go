package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/structgp/internal/backend/cpu"
	"github.com/born-ml/structgp/internal/config"
	"github.com/born-ml/structgp/internal/models"
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/optim"
	"github.com/born-ml/structgp/internal/tensor"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, config.DefaultConfig().Validate())
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
seed: 7
model:
  num_tasks: 2
  rank: 2
  batch_shape: [3]
  independent_task_covar: true
data:
  points: 40
train:
  iterations: 200
optimizer:
  name: sgd
  lr: 0.05
  momentum: 0.9
checkpoint: out/model.born
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	want := config.DefaultConfig()
	want.Seed = 7
	want.Model.Rank = 2
	want.Model.BatchShape = tensor.Shape{3}
	want.Model.IndependentTaskCovar = true
	want.Data.Points = 40
	want.Train.Iterations = 200
	want.Optimizer = config.OptimizerConfig{Name: "sgd", LR: 0.05, Momentum: 0.9}
	want.Checkpoint = "out/model.born"

	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(models.Config{})); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := config.Load(writeFile(t, "model: [unclosed"))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Seed = 3
	cfg.Optimizer.LR = 0.02
	path := filepath.Join(t.TempDir(), "nested", "run.yaml")
	require.NoError(t, cfg.Save(path))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"tasks", func(c *config.Config) { c.Model.NumTasks = 3 }, "model.num_tasks"},
		{"points", func(c *config.Config) { c.Data.Points = -1 }, "data.points"},
		{"iterations", func(c *config.Config) { c.Train.Iterations = 0 }, "train.iterations"},
		{"log every", func(c *config.Config) { c.Train.LogEvery = -1 }, "train.log_every"},
		{"lr", func(c *config.Config) { c.Optimizer.LR = 0 }, "optimizer.lr"},
		{"momentum", func(c *config.Config) { c.Optimizer.Momentum = 1 }, "optimizer.momentum"},
		{"optimizer", func(c *config.Config) { c.Optimizer.Name = "lbfgs" }, "optimizer.name"},
		{"level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cerr *nn.ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestNewOptimizer(t *testing.T) {
	b := cpu.New()
	params := []*nn.Parameter[*cpu.CPUBackend]{
		nn.NewParameter("p", tensor.Zeros[float64](tensor.Shape{1}, b)),
	}

	opt, err := config.NewOptimizer(config.OptimizerConfig{Name: "Adam", LR: 0.3}, params)
	require.NoError(t, err)
	assert.IsType(t, &optim.Adam[*cpu.CPUBackend]{}, opt)
	assert.InDelta(t, 0.3, opt.GetLR(), 0)

	opt, err = config.NewOptimizer(config.OptimizerConfig{Name: "sgd", LR: 0.2, Momentum: 0.5}, params)
	require.NoError(t, err)
	assert.IsType(t, &optim.SGD[*cpu.CPUBackend]{}, opt)

	_, err = config.NewOptimizer(config.OptimizerConfig{Name: "rmsprop"}, params)
	assert.ErrorIs(t, err, nn.ErrConfig)
}
