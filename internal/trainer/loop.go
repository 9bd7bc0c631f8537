package trainer

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"

	"tte-forge/internal/dataset"
	"tte-forge/internal/metrics"
	"tte-forge/internal/model"
)

// ErrNoCheckpoint is returned when a completed run never produced a loss
// below the initial sentinel, so there is no model to return.
var ErrNoCheckpoint = errors.New("trainer: no epoch improved on the initial loss")

// TrainRegression fits a RegressionNetwork to table and returns the lowest
// loss checkpoint of the first attempt that runs every epoch without being
// flagged aberrant. Aberrant attempts restart from a fresh network and
// optimizer according to opts.Retry.
func TrainRegression(ctx context.Context, table dataset.Table, opts RegressionOptions) (*model.RegressionNetwork, error) {
	if opts.Epochs <= 0 {
		return nil, errors.New("trainer: epochs must be > 0")
	}
	if opts.BatchSize <= 0 {
		return nil, errors.New("trainer: batch size must be > 0")
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if table.Rows() == 0 {
		return nil, errors.Wrap(dataset.ErrEmptyTable, "trainer")
	}
	if opts.LogEvery <= 0 {
		opts.LogEvery = 50
	}
	batches, err := dataset.Batches(table, opts.BatchSize)
	if err != nil {
		return nil, err
	}

	logger := orDefault(opts.Logger)
	newAttempt := opts.NewAttempt
	if newAttempt == nil {
		rng := opts.rng()
		newAttempt = func(_, inputs int) Attempt {
			net := model.NewRegressionNetwork(model.RegressionConfig{
				Inputs:  inputs,
				Hidden1: opts.Hidden1,
				Hidden2: opts.Hidden2,
				Outputs: 1,
			}, rng)
			opt := model.NewAdam(model.AdamConfig{LR: opts.LearningRate})
			return Attempt{Learner: model.NewLearner(net, opt, model.SmoothL1{Beta: 1}), Network: net}
		}
	}

	var best *model.RegressionNetwork
	err = opts.Retry.Run(ctx, func(attempt int) error {
		net, err := runAttempt(ctx, newAttempt(attempt, table.Width()), batches, table.Rows(), opts, logger)
		if errors.Is(err, ErrAberrant) {
			logger.Printf("aberrant training detected, retrying attempt=%d: %v", attempt, err)
			return err
		}
		best = net
		return err
	})
	if err != nil {
		return nil, err
	}
	return best, nil
}

func runAttempt(ctx context.Context, a Attempt, batches []model.Batch, rows int, opts RegressionOptions, logger *log.Logger) (*model.RegressionNetwork, error) {
	div := opts.Divergence
	progress := metrics.OrNop(opts.Progress)
	progress.Set(0, opts.Epochs)

	lastLoss := div.InitialLoss
	bestLoss := div.InitialLoss
	var best *model.RegressionNetwork
	var window metrics.Window

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		var loss float64
		for _, b := range batches {
			loss = a.Learner.TrainStep(b)
		}
		window.Record(rows, time.Since(start), loss)

		if div.CheckEvery > 0 && epoch%div.CheckEvery == 0 && loss >= lastLoss && loss >= div.Threshold {
			return nil, errors.Wrapf(ErrAberrant, "epoch=%d loss=%.4f previous=%.4f", epoch, loss, lastLoss)
		}

		lastLoss = loss
		if loss < bestLoss {
			bestLoss = loss
			best = a.Network.Clone()
		}
		progress.Set(epoch+1, opts.Epochs)

		if (epoch+1)%opts.LogEvery == 0 {
			snap := window.Snapshot()
			logger.Printf("epoch=%d examples_per_sec=%.1f epoch_ms=%.2f loss=%.4f best=%.4f",
				epoch+1,
				snap.ExamplesPerSec,
				snap.AvgEpochMS,
				snap.LastLoss,
				bestLoss,
			)
		}
	}

	if best == nil {
		return nil, errors.Wrapf(ErrNoCheckpoint, "initial loss %.4f", div.InitialLoss)
	}
	return best, nil
}
