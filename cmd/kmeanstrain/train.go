package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kmscale/frame"
	"kmscale/job"
	"kmscale/kmeans"
	"kmscale/logging"
	"kmscale/mapreduce"
	"kmscale/model"
	"kmscale/modelstore"
	"kmscale/plot"
	"kmscale/rng"
)

func trainCommand() *cobra.Command {
	var cfgPath string
	var workers []string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run one training job against the frame described by a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cfgPath, workers)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to a TOML config file")
	cmd.Flags().StringSliceVar(&workers, "workers", nil, "host:port addresses of kmeansworker processes; when set, map phases dispatch over RPC instead of running in-process")
	cmd.MarkFlagRequired("config")
	return cmd
}

func runTrain(cfgPath string, workers []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	init, err := parseInit(cfg.Init)
	if err != nil {
		return err
	}

	f, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.Input, err)
	}
	defer f.Close()

	fr, err := frame.FromCSV(f, cfg.CategoricalColumns, cfg.CategoricalCardinalities)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.Input, err)
	}

	lg := logging.NewZapLogger(cfg.LogPath, cfg.LogMaxSizeMB)
	defer lg.Sync()

	params := kmeans.TrainingParameters{
		K:                    cfg.K,
		MaxIters:             cfg.MaxIters,
		Init:                 init,
		Standardize:          cfg.Standardize,
		Seed:                 cfg.Seed,
		ChunkSize:            cfg.ChunkSize,
		OversampleRounds:     cfg.OversampleRounds,
		OversampleFactor:     cfg.OversampleFactor,
		ConvergenceThreshold: cfg.ConvergenceThreshold,
	}

	var rt mapreduce.Runtime
	if len(workers) > 0 {
		rt = mapreduce.NewRPCRuntime("tcp", workers)
	} else {
		rt = mapreduce.NewLocalRuntime(cfg.PoolSize)
	}
	gen := rng.New(cfg.Seed - 1)
	jb := job.NewLocalJob()
	ms := modelstore.NewMemStore()

	out, err := kmeans.Train(context.Background(), params, fr, rt, gen, jb, ms, lg)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}

	printSummary(out)
	return renderReports(cfg, out)
}

func parseInit(s string) (kmeans.Initialization, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return kmeans.InitNone, nil
	case "plusplus":
		return kmeans.InitPlusPlus, nil
	case "furthest":
		return kmeans.InitFurthest, nil
	default:
		return 0, fmt.Errorf("unknown init option %q", s)
	}
}

func printSummary(m *model.Output) {
	fmt.Printf("Training complete after %d iteration(s).\n", m.Iterations)
	for i, n := range m.Rows {
		fmt.Printf("Cluster %d: %d rows, within-cluster MSE %.6f\n", i, n, m.WithinMSE[i])
	}
	fmt.Printf("avgWithinSS=%.6f avgBetweenSS=%.6f totalAvgSS=%.6f\n", m.AvgWithinSS, m.AvgBetweenSS, m.TotalAvgSS)
}

func renderReports(cfg *Config, m *model.Output) error {
	r := &plot.Reporter{ScatterPath: cfg.ScatterPath, BarPath: cfg.BarPath}
	if err := r.GenerateBarChart(m); err != nil {
		return fmt.Errorf("rendering bar chart: %w", err)
	}
	if err := r.GenerateScatterPlot(m); err != nil {
		return fmt.Errorf("rendering scatter plot: %w", err)
	}
	return nil
}
