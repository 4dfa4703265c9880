package main

import (
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/born-ml/structgp/internal/autodiff"
	"github.com/born-ml/structgp/internal/backend/cpu"
	"github.com/born-ml/structgp/internal/config"
	"github.com/born-ml/structgp/internal/models"
	"github.com/born-ml/structgp/internal/mll"
	"github.com/born-ml/structgp/internal/serialization"
	"github.com/born-ml/structgp/internal/synthetic"
	"github.com/born-ml/structgp/internal/tensor"
	"github.com/born-ml/structgp/internal/train"
)

const modelType = "multitask_exact_gp"

type backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// session is a model together with the data it is fitted to.
type session struct {
	model *models.MultitaskExactGP[backend]
	x, y  *tensor.Tensor[float64, backend]
}

// newSession draws the synthetic data and then initializes the model from
// the same generator, so a seed fixes both.
func newSession(cfg *config.Config, logger *zap.Logger) (*session, error) {
	b := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible experiments
	x, y := synthetic.SinCos(cfg.Data, rng, b)

	modelCfg := cfg.Model
	modelCfg.Rand = rng
	modelCfg.Logger = logger
	model, err := models.NewMultitaskExactGP(modelCfg, b)
	if err != nil {
		return nil, err
	}
	return &session{model: model, x: x, y: y}, nil
}

func newTrainCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a multitask GP to the two-task sin/cos problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runTrain(cmd.OutOrStdout(), cfg, logger)
		},
	}
	opts.addFlags(cmd)
	f := cmd.Flags()
	f.IntVarP(&opts.iterations, "iterations", "n", 0, "optimizer iterations")
	f.Float64Var(&opts.lr, "lr", 0, "learning rate")
	f.StringVar(&opts.optimizer, "optimizer", "", "optimizer (adam, sgd)")
	f.StringVarP(&opts.checkpoint, "save", "o", "", "write fitted parameters to this .born file")
	return cmd
}

func runTrain(out io.Writer, cfg *config.Config, logger *zap.Logger) error {
	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	objective := mll.NewExactMarginalLogLikelihood(s.model.Likelihood(), s.model)
	opt, err := config.NewOptimizer(cfg.Optimizer, s.model.Parameters())
	if err != nil {
		return err
	}

	trainCfg := cfg.Train
	trainCfg.Logger = logger
	logger.Info("training started",
		zap.Int("points", s.x.Shape()[len(s.x.Shape())-2]),
		zap.Int("num_tasks", cfg.Model.NumTasks),
		zap.String("optimizer", cfg.Optimizer.Name),
		zap.Int64("seed", cfg.Seed))
	history, err := train.Fit[backend](s.model, objective, opt, s.x, s.y, trainCfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "final loss: %.6f\n", history.Final())
	for _, entry := range s.model.NamedParameters() {
		logger.Debug("parameter", zap.String("name", entry.Name), zap.Float64s("value", entry.Param.Data()))
	}
	fmt.Fprintln(out, "learned task-noise covariance:")
	printMatrices(out, s.model.Likelihood().NoiseCovar())

	if cfg.Checkpoint == "" {
		return nil
	}
	runID := uuid.NewString()
	err = serialization.SaveFile(cfg.Checkpoint, s.model.Registry(), serialization.Options{
		Version:   version,
		ModelType: modelType,
		Metadata: map[string]string{
			"run_id": runID,
			"seed":   strconv.FormatInt(cfg.Seed, 10),
			"points": strconv.Itoa(cfg.Data.Points),
		},
		Checkpoint: &serialization.CheckpointMeta{
			Iteration:       len(history.Losses),
			Loss:            history.Final(),
			OptimizerType:   cfg.Optimizer.Name,
			OptimizerConfig: map[string]float64{"lr": opt.GetLR()},
		},
	})
	if err != nil {
		return err
	}
	logger.Info("checkpoint saved", zap.String("path", cfg.Checkpoint), zap.String("run_id", runID))
	return nil
}

// printMatrices writes a [*batch, R, C] tensor one R×C block at a time.
func printMatrices(out io.Writer, t *tensor.Tensor[float64, backend]) {
	shape := t.Shape()
	rows, cols := shape[len(shape)-2], shape[len(shape)-1]
	data := t.Data()
	block := rows * cols
	if block == 0 {
		return
	}
	for b := 0; b*block < len(data); b++ {
		if len(shape) > 2 {
			fmt.Fprintf(out, "batch %d:\n", b)
		}
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if j > 0 {
					fmt.Fprint(out, " ")
				}
				fmt.Fprintf(out, "%10.6f", data[b*block+i*cols+j])
			}
			fmt.Fprintln(out)
		}
	}
}
