// Package config loads the run configuration of the structgp CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/structgp/internal/models"
	"github.com/born-ml/structgp/internal/nn"
	"github.com/born-ml/structgp/internal/optim"
	"github.com/born-ml/structgp/internal/synthetic"
	"github.com/born-ml/structgp/internal/tensor"
	"github.com/born-ml/structgp/internal/train"
)

// Optimizer names accepted in OptimizerConfig.Name.
const (
	OptimizerAdam = "adam"
	OptimizerSGD  = "sgd"
)

// Config is the top-level run configuration.
type Config struct {
	Seed int64 `yaml:"seed"`

	Model     models.Config          `yaml:"model"`
	Data      synthetic.SinCosConfig `yaml:"data"`
	Train     train.Config           `yaml:"train"`
	Optimizer OptimizerConfig        `yaml:"optimizer"`
	Logging   LoggingConfig          `yaml:"logging"`

	// Checkpoint is the .born file fitted parameters are written to.
	// Empty disables saving.
	Checkpoint string `yaml:"checkpoint"`
}

// OptimizerConfig selects and tunes the optimizer.
type OptimizerConfig struct {
	Name     string  `yaml:"name"`     // adam, sgd
	LR       float64 `yaml:"lr"`       // learning rate
	Momentum float64 `yaml:"momentum"` // sgd only
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the configuration of the two-task sin/cos run.
func DefaultConfig() *Config {
	return &Config{
		Model: models.Config{
			NumTasks: 2,
			Rank:     1,
		},
		Data: synthetic.SinCosConfig{
			Points:      100,
			SharedScale: 0.5,
			TaskScale:   0.1,
		},
		Train: train.Config{
			Iterations: 50,
			LogEvery:   10,
		},
		Optimizer: OptimizerConfig{
			Name: OptimizerAdam,
			LR:   0.1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML configuration on top of DefaultConfig. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	//nolint:gosec // G304: user-supplied config path
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the values the constructors do not check themselves.
func (c *Config) Validate() error {
	switch {
	case c.Model.NumTasks != synthetic.SinCosTasks:
		return invalid("model.num_tasks", fmt.Sprintf("the sin/cos data has %d tasks, got %d", synthetic.SinCosTasks, c.Model.NumTasks))
	case c.Data.Points < 0:
		return invalid("data.points", fmt.Sprintf("must be >= 0, got %d", c.Data.Points))
	case c.Train.Iterations < 1:
		return invalid("train.iterations", fmt.Sprintf("must be >= 1, got %d", c.Train.Iterations))
	case c.Train.LogEvery < 0:
		return invalid("train.log_every", fmt.Sprintf("must be >= 0, got %d", c.Train.LogEvery))
	case c.Optimizer.LR <= 0:
		return invalid("optimizer.lr", fmt.Sprintf("must be > 0, got %g", c.Optimizer.LR))
	case c.Optimizer.Momentum < 0 || c.Optimizer.Momentum >= 1:
		return invalid("optimizer.momentum", fmt.Sprintf("must be in [0, 1), got %g", c.Optimizer.Momentum))
	}
	switch strings.ToLower(c.Optimizer.Name) {
	case OptimizerAdam, OptimizerSGD:
	default:
		return invalid("optimizer.name", fmt.Sprintf("unknown optimizer %q (valid: %s, %s)", c.Optimizer.Name, OptimizerAdam, OptimizerSGD))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return invalid("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format))
	}
	return nil
}

// NewOptimizer builds the configured optimizer over params.
func NewOptimizer[B tensor.Backend](c OptimizerConfig, params []*nn.Parameter[B]) (optim.Optimizer, error) {
	switch strings.ToLower(c.Name) {
	case OptimizerAdam:
		return optim.NewAdam(params, optim.AdamConfig{LR: c.LR}), nil
	case OptimizerSGD:
		return optim.NewSGD(params, optim.SGDConfig{LR: c.LR, Momentum: c.Momentum}), nil
	default:
		return nil, invalid("optimizer.name", fmt.Sprintf("unknown optimizer %q", c.Name))
	}
}

func invalid(field, reason string) error {
	return &nn.ConfigError{Component: "config", Field: field, Reason: reason}
}
