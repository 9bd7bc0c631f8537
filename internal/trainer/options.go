package trainer

import (
	"log"
	"math/rand"

	"tte-forge/internal/metrics"
	"tte-forge/internal/model"
)

// Divergence configures aberrant-run detection. A run is aberrant when, at
// an epoch with epoch%CheckEvery == 0, the last batch loss is both at least
// the previous epoch's loss and at least Threshold.
type Divergence struct {
	// InitialLoss seeds both the previous-loss and best-loss trackers.
	InitialLoss float64
	Threshold   float64
	// CheckEvery is the epoch cadence of the check; 0 disables it.
	CheckEvery int
}

// DefaultDivergence returns the 75/50/20 policy.
func DefaultDivergence() Divergence {
	return Divergence{InitialLoss: 75, Threshold: 50, CheckEvery: 20}
}

// Attempt is the state of one training attempt: the learner that is stepped
// and the network that is checkpointed.
type Attempt struct {
	Learner model.Model
	Network *model.RegressionNetwork
}

// RegressionOptions captures the knobs of TrainRegression.
type RegressionOptions struct {
	BatchSize    int
	Epochs       int
	LearningRate float64
	Hidden1      int
	Hidden2      int
	Divergence   Divergence
	Retry        RetryPolicy
	Seed         int64
	// Rand overrides Seed when set.
	Rand     *rand.Rand
	LogEvery int
	Logger   *log.Logger
	Progress metrics.Progress
	// NewAttempt overrides construction of the network and learner for each
	// attempt, numbered from 1.
	NewAttempt func(attempt, inputs int) Attempt
}

// DefaultRegressionOptions returns the stock hyperparameters.
func DefaultRegressionOptions() RegressionOptions {
	return RegressionOptions{
		BatchSize:    32,
		Epochs:       100,
		LearningRate: 0.001,
		Hidden1:      70,
		Hidden2:      70,
		Divergence:   DefaultDivergence(),
		LogEvery:     50,
	}
}

func (o RegressionOptions) rng() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}
	seed := o.Seed
	if seed == 0 {
		seed = 42
	}
	return rand.New(rand.NewSource(seed))
}

func orDefault(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}
