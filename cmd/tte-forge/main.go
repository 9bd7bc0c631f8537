package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"

	"tte-forge/internal/config"
	"tte-forge/internal/crossval"
	"tte-forge/internal/dataset"
	"tte-forge/internal/metrics"
	"tte-forge/internal/report"
	"tte-forge/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config")
	data := flag.String("data", "", "Override data CSV file or directory")
	target := flag.String("target", "", "Override target column")
	outDir := flag.String("out", "", "Override output directory")
	epochs := flag.Int("epochs", 0, "Number of training epochs")
	batchSize := flag.Int("batch-size", 0, "Batch size")
	folds := flag.Int("folds", 0, "Number of cross-validation folds")
	seed := flag.Int64("seed", 0, "PRNG seed")
	logEvery := flag.Int("log-every", 0, "Log every N epochs")
	maxAttempts := flag.Int("max-attempts", 0, "Cap on training restarts (0 = unbounded)")

	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	cfg.ApplyOverrides(config.Overrides{
		Data:        *data,
		Target:      *target,
		OutputDir:   *outDir,
		Epochs:      *epochs,
		BatchSize:   *batchSize,
		Folds:       *folds,
		Seed:        *seed,
		LogEvery:    *logEvery,
		MaxAttempts: *maxAttempts,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("cpu=%q cores=%d threads=%d avx2=%v",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, cpuid.CPU.Supports(cpuid.AVX2))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Default()); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	path, err := resolveTable(cfg.Data)
	if err != nil {
		return err
	}
	table, err := dataset.LoadCSV(path, dataset.CSVOptions{
		Target:   cfg.Target,
		Category: cfg.Category,
		Exclude:  cfg.Exclude,
	})
	if err != nil {
		return err
	}
	logger.Printf("table=%s rows=%d features=%d", path, table.Rows(), table.Width())

	if cfg.Autoencoder.Enabled {
		ae, err := trainer.TrainAutoencoder(ctx, table.Features, trainer.AutoencoderOptions{
			Hidden:       cfg.Autoencoder.Hidden,
			Code:         cfg.Autoencoder.Code,
			BatchSize:    cfg.Autoencoder.BatchSize,
			Epochs:       cfg.Autoencoder.Epochs,
			LearningRate: cfg.LearningRate,
			NoiseMean:    1,
			NoiseStd:     0.3,
			KeepNoise:    cfg.Autoencoder.KeepNoise,
			Seed:         cfg.Seed,
			Logger:       logger,
		})
		if err != nil {
			return errors.Wrap(err, "train autoencoder")
		}
		if table.Features, err = trainer.Denoise(ae, table.Features); err != nil {
			return errors.Wrap(err, "denoise features")
		}
	}

	reg := regressionOptions(cfg, logger)
	summary, err := crossval.Run(ctx, table, crossval.Options{
		Epochs:     cfg.Epochs,
		BatchSize:  cfg.BatchSize,
		Folds:      cfg.Folds,
		Regression: reg,
		Progress:   metrics.LogProgress{Logger: logger, Label: "cross-validation"},
		Logger:     logger,
	})
	if err != nil {
		return errors.Wrap(err, "cross-validate")
	}

	preds, err := summary.PredictionValues()
	if err != nil {
		return err
	}
	actuals, err := summary.ActualValues()
	if err != nil {
		return err
	}
	stats, err := metrics.Summarize(preds, actuals, summary.Losses)
	if err != nil {
		return err
	}
	logger.Printf("cv examples=%d mae=%.4f rmse=%.4f mean_loss=%.4f pearson=%.4f",
		stats.N, stats.MAE, stats.RMSE, stats.MeanLoss, stats.Pearson)

	reg.Progress = metrics.LogProgress{Logger: logger, Label: "final-fit"}
	final, err := trainer.TrainRegression(ctx, table, reg)
	if err != nil {
		return errors.Wrap(err, "final fit")
	}
	fitted, err := trainer.Predict(final, table.Features)
	if err != nil {
		return err
	}

	if cfg.OutputDir == "" {
		return nil
	}
	return writeReports(cfg, table, summary, preds, actuals, fitted, logger)
}

func regressionOptions(cfg *config.Config, logger *log.Logger) trainer.RegressionOptions {
	opts := trainer.DefaultRegressionOptions()
	opts.BatchSize = cfg.BatchSize
	opts.Epochs = cfg.Epochs
	opts.LearningRate = cfg.LearningRate
	opts.Hidden1 = cfg.Hidden1
	opts.Hidden2 = cfg.Hidden2
	opts.Divergence = trainer.Divergence{
		InitialLoss: cfg.Divergence.InitialLoss,
		Threshold:   cfg.Divergence.Threshold,
		CheckEvery:  cfg.Divergence.CheckEvery,
	}
	opts.Retry = trainer.RetryPolicy{MaxAttempts: cfg.MaxAttempts}
	opts.Seed = cfg.Seed
	opts.LogEvery = cfg.LogEvery
	opts.Logger = logger
	return opts
}

func writeReports(cfg *config.Config, table dataset.Table, summary crossval.Summary, preds, actuals []float64, fitted [][]float64, logger *log.Logger) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}

	rows := make([]report.Row, len(summary.Predictions))
	for i := range rows {
		rows[i] = report.Row{Prediction: summary.Predictions[i], Actual: summary.Actuals[i]}
		if i < len(summary.Losses) {
			rows[i].Loss = summary.Losses[i]
		}
	}
	if err := report.WriteCSV(filepath.Join(cfg.OutputDir, "cross_validation.csv"), rows); err != nil {
		return err
	}

	fitRows := make([]report.Row, len(fitted))
	values := make([]float64, len(fitted))
	for i, out := range fitted {
		values[i] = out[0]
		fitRows[i] = report.Row{
			Prediction: strconv.FormatFloat(out[0], 'g', -1, 64),
			Actual:     strconv.FormatFloat(table.Targets[i], 'g', -1, 64),
		}
	}
	if err := report.WriteCSV(filepath.Join(cfg.OutputDir, "predictions.csv"), fitRows); err != nil {
		return err
	}

	if len(preds) > 0 {
		if err := report.ScatterPlot(filepath.Join(cfg.OutputDir, "cross_validation.png"), "Predicted vs actual", preds, actuals); err != nil {
			return err
		}
	}

	if cfg.Category != "" && table.Labels != nil {
		groups, err := report.GroupMeans(table.Labels, values)
		if err != nil {
			return err
		}
		for _, g := range groups {
			logger.Printf("group %s=%q mean_prediction=%.2f n=%d", cfg.Category, g.Category, g.Mean, g.Count)
		}
	}
	logger.Printf("reports written to %s", cfg.OutputDir)
	return nil
}

// resolveTable returns path itself for a file, or the first CSV beneath it
// for a directory.
func resolveTable(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrap(err, "stat data")
	}
	if !info.IsDir() {
		return path, nil
	}
	tables, err := dataset.DiscoverTables(path)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return "", errors.Errorf("no CSV tables discovered under %s", path)
	}
	return tables[0], nil
}
