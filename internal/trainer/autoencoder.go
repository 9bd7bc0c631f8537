package trainer

import (
	"context"
	"log"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"tte-forge/internal/dataset"
	"tte-forge/internal/model"
)

// AutoencoderOptions captures the knobs of TrainAutoencoder.
type AutoencoderOptions struct {
	Hidden       int
	Code         int
	BatchSize    int
	Epochs       int
	LearningRate float64
	NoiseMean    float64
	NoiseStd     float64
	// KeepNoise trains on the noisy copy. By default the noisy copy is
	// replaced with the clean features before training.
	KeepNoise bool
	// InitialLoss is the best-loss sentinel a checkpoint must beat.
	InitialLoss float64
	LogEvery    int
	Seed        int64
	Rand        *rand.Rand
	Logger      *log.Logger
}

// DefaultAutoencoderOptions returns the 6/3 topology trained for 80 epochs.
func DefaultAutoencoderOptions() AutoencoderOptions {
	return AutoencoderOptions{
		Hidden:       6,
		Code:         3,
		BatchSize:    64,
		Epochs:       80,
		LearningRate: 0.001,
		NoiseMean:    1,
		NoiseStd:     0.3,
		InitialLoss:  100,
		LogEvery:     10,
	}
}

// TrainAutoencoder fits a DenoisingAutoencoder with mean squared error and
// returns the lowest loss checkpoint. There is no divergence retry.
func TrainAutoencoder(ctx context.Context, features [][]float64, opts AutoencoderOptions) (*model.DenoisingAutoencoder, error) {
	if opts.Epochs <= 0 {
		return nil, errors.New("trainer: epochs must be > 0")
	}
	clean, err := dataset.Matrix(features)
	if err != nil {
		return nil, errors.Wrap(err, "trainer: autoencoder features")
	}
	if opts.LogEvery <= 0 {
		opts.LogEvery = 10
	}
	if opts.InitialLoss == 0 {
		opts.InitialLoss = 100
	}
	logger := orDefault(opts.Logger)
	rng := opts.Rand
	if rng == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = 42
		}
		rng = rand.New(rand.NewSource(seed))
	}

	noisy := addNoise(clean, opts.NoiseMean, opts.NoiseStd, rng)
	inputs := dataset.Rows(noisy)
	if !opts.KeepNoise {
		inputs = dataset.Rows(clean)
	}
	batches, err := dataset.ReconstructionBatches(inputs, dataset.Rows(clean), opts.BatchSize)
	if err != nil {
		return nil, err
	}

	_, width := clean.Dims()
	ae := model.NewAutoencoder(model.AutoencoderConfig{Inputs: width, Hidden: opts.Hidden, Code: opts.Code}, rng)
	learner := model.NewLearner(ae, model.NewAdam(model.AdamConfig{LR: opts.LearningRate}), model.MSE{})

	bestLoss := opts.InitialLoss
	var best *model.DenoisingAutoencoder
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var loss float64
		for _, b := range batches {
			loss = learner.TrainStep(b)
		}
		if epoch%opts.LogEvery == 0 {
			logger.Printf("autoencoder epoch=%d loss=%.4f", epoch, loss)
		}
		if loss < bestLoss {
			bestLoss = loss
			best = ae.Clone()
		}
	}
	if best == nil {
		return nil, errors.Wrapf(ErrNoCheckpoint, "initial loss %.4f", opts.InitialLoss)
	}
	return best, nil
}

// addNoise returns x plus Gaussian noise drawn by inverse CDF from rng.
// A zero std returns an unmodified copy.
func addNoise(x *mat.Dense, mean, std float64, rng *rand.Rand) *mat.Dense {
	out := mat.DenseCopyOf(x)
	if std <= 0 {
		return out
	}
	dist := distuv.Normal{Mu: mean, Sigma: std}
	out.Apply(func(_, _ int, v float64) float64 {
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		return v + dist.Quantile(u)
	}, out)
	return out
}

// Reconstruct runs each row through ae on its own and stacks the outputs as
// columns, giving a features × examples matrix.
func Reconstruct(ae *model.DenoisingAutoencoder, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, errors.Wrap(dataset.ErrEmptyTable, "trainer: reconstruct")
	}
	width := ae.Inputs()
	out := mat.NewDense(width, len(rows), nil)
	for j, row := range rows {
		if len(row) != width {
			return nil, errors.Wrapf(dataset.ErrShapeMismatch, "row %d has %d features, autoencoder expects %d", j, len(row), width)
		}
		y := ae.Forward(mat.NewDense(1, width, append([]float64(nil), row...)))
		out.SetCol(j, y.RawRowView(0))
	}
	return out, nil
}

// Denoise reconstructs rows and returns them in row-major form.
func Denoise(ae *model.DenoisingAutoencoder, rows [][]float64) ([][]float64, error) {
	stacked, err := Reconstruct(ae, rows)
	if err != nil {
		return nil, err
	}
	return dataset.Rows(stacked.T()), nil
}
