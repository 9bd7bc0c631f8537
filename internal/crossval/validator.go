package crossval

import (
	"context"
	"log"
	"strconv"

	"github.com/pkg/errors"

	"tte-forge/internal/dataset"
	"tte-forge/internal/metrics"
	"tte-forge/internal/trainer"
)

// TrainFunc fits a model on one fold's training view.
type TrainFunc func(ctx context.Context, train dataset.Table, epochs, batchSize int) (trainer.Predictor, error)

// EvaluateFunc scores a fitted model on one fold's validation view.
type EvaluateFunc func(p trainer.Predictor, val dataset.Table) (trainer.Result, error)

// FoldStats records the split sizes of a completed fold.
type FoldStats struct {
	Fold      Fold
	TrainRows int
	ValRows   int
}

// Summary aggregates the per-example sequences of every fold in fold order.
type Summary struct {
	Predictions []string
	Actuals     []string
	Losses      []float64
	Folds       []FoldStats
}

// PredictionValues parses Predictions back into numbers.
func (s Summary) PredictionValues() ([]float64, error) {
	return parseAll(s.Predictions)
}

// ActualValues parses Actuals back into numbers.
func (s Summary) ActualValues() ([]float64, error) {
	return parseAll(s.Actuals)
}

// Validator runs contiguous k-fold cross-validation.
type Validator struct {
	Epochs    int
	BatchSize int
	Folds     int
	Train     TrainFunc
	Evaluate  EvaluateFunc
	Progress  metrics.Progress
	Logger    *log.Logger
}

// Options configures Run.
type Options struct {
	Epochs    int
	BatchSize int
	Folds     int
	// Regression supplies the remaining training knobs; its Epochs,
	// BatchSize and Progress are overridden per fold.
	Regression trainer.RegressionOptions
	Progress   metrics.Progress
	Logger     *log.Logger
}

// New builds a Validator that trains regression networks and evaluates them
// with trainer.Evaluate.
func New(opts Options) Validator {
	base := opts.Regression
	base.Progress = nil
	if base.Logger == nil {
		base.Logger = opts.Logger
	}
	return Validator{
		Epochs:    opts.Epochs,
		BatchSize: opts.BatchSize,
		Folds:     opts.Folds,
		Train: func(ctx context.Context, train dataset.Table, epochs, batchSize int) (trainer.Predictor, error) {
			o := base
			o.Epochs = epochs
			o.BatchSize = batchSize
			return trainer.TrainRegression(ctx, train, o)
		},
		Evaluate: func(p trainer.Predictor, val dataset.Table) (trainer.Result, error) {
			return trainer.Evaluate(p, val)
		},
		Progress: opts.Progress,
		Logger:   opts.Logger,
	}
}

// Run cross-validates a regression network over table.
func Run(ctx context.Context, table dataset.Table, opts Options) (Summary, error) {
	return New(opts).Run(ctx, table)
}

// Run trains and evaluates every fold in order and concatenates the
// per-example results. Each sequence stops at its first End marker.
func (v Validator) Run(ctx context.Context, table dataset.Table) (Summary, error) {
	if err := table.Validate(); err != nil {
		return Summary{}, err
	}
	if v.Train == nil || v.Evaluate == nil {
		return Summary{}, errors.New("crossval: Train and Evaluate are required")
	}
	folds, err := Folds(table.Rows(), v.Folds)
	if err != nil {
		return Summary{}, err
	}
	logger := v.Logger
	if logger == nil {
		logger = log.Default()
	}
	progress := metrics.OrNop(v.Progress)
	progress.Set(0, len(folds))

	var sum Summary
	for _, f := range folds {
		train, val := f.Split(table)

		p, err := v.Train(ctx, train, v.Epochs, v.BatchSize)
		if err != nil {
			return Summary{}, errors.Wrapf(err, "fold %d", f.Index)
		}
		res, err := v.Evaluate(p, val)
		if err != nil {
			return Summary{}, errors.Wrapf(err, "fold %d", f.Index)
		}

		sum.Predictions = append(sum.Predictions, trainer.Values(res.Predictions)...)
		sum.Actuals = append(sum.Actuals, trainer.Values(res.Actuals)...)
		sum.Losses = append(sum.Losses, trainer.Values(res.Losses)...)
		sum.Folds = append(sum.Folds, FoldStats{Fold: f, TrainRows: train.Rows(), ValRows: val.Rows()})

		logger.Printf("fold=%d/%d train=%d val=%d", f.Index+1, len(folds), train.Rows(), val.Rows())
		progress.Set(f.Index+1, len(folds))
	}
	return sum, nil
}

func parseAll(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, s := range values {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", i)
		}
		out[i] = v
	}
	return out, nil
}
