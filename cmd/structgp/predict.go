package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/born-ml/structgp/internal/config"
	"github.com/born-ml/structgp/internal/serialization"
	"github.com/born-ml/structgp/internal/tensor"
)

func newPredictCmd() *cobra.Command {
	opts := &runOptions{}
	var at []float64
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Evaluate the posterior mean of a saved model",
		Long: `predict rebuilds the training data from the configuration and seed,
loads the fitted parameters from --checkpoint and prints the posterior mean
of every task at the --at inputs.`,
		Args: cobra.NoArgs,
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
			return runPredict(cmd.OutOrStdout(), cfg, at, logger)
		},
	}
	opts.addFlags(cmd)
	f := cmd.Flags()
	f.StringVar(&opts.checkpoint, "checkpoint", "", "fitted .born file")
	f.Float64SliceVar(&at, "at", []float64{0, 0.25, 0.5, 0.75, 1}, "inputs to predict at")
	_ = cmd.MarkFlagRequired("checkpoint")
	return cmd
}

func runPredict(out io.Writer, cfg *config.Config, at []float64, logger *zap.Logger) error {
	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	header, err := serialization.LoadFile(cfg.Checkpoint, s.model.Registry())
	if err != nil {
		return err
	}
	if header.ModelType != modelType {
		return fmt.Errorf("checkpoint %s holds a %q, not a %q", cfg.Checkpoint, header.ModelType, modelType)
	}
	logger.Info("checkpoint loaded",
		zap.String("path", cfg.Checkpoint),
		zap.String("run_id", header.Metadata["run_id"]),
		zap.String("written_by", header.Version),
		zap.Time("created_at", header.CreatedAt))

	s.model.Eval()
	s.model.SetTrainData(s.x, s.y)
	x, err := tensor.FromSlice(at, tensor.Shape{len(at), 1}, s.x.Backend())
	if err != nil {
		return err
	}
	mu, err := s.model.Predict(x)
	if err != nil {
		return err
	}

	shape := mu.Shape()
	tasks := shape[len(shape)-1]
	data := mu.Data()
	fmt.Fprint(out, "x")
	for j := 0; j < tasks; j++ {
		fmt.Fprintf(out, "\ttask %d", j)
	}
	fmt.Fprintln(out)
	for k := 0; k*len(at)*tasks < len(data); k++ {
		for i, xi := range at {
			fmt.Fprintf(out, "%.4f", xi)
			for j := 0; j < tasks; j++ {
				fmt.Fprintf(out, "\t%.6f", data[(k*len(at)+i)*tasks+j])
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}
