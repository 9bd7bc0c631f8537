package trainer

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrAberrant marks a training attempt that diverged and should be rerun.
	ErrAberrant = errors.New("trainer: aberrant training run")
	// ErrDivergence is returned once a bounded retry policy is exhausted.
	ErrDivergence = errors.New("trainer: training kept diverging")
)

// RetryPolicy bounds the number of attempts. MaxAttempts <= 0 retries
// forever.
type RetryPolicy struct {
	MaxAttempts int
}

// Run calls task with attempt numbers starting at 1 until it returns an
// error other than ErrAberrant. Context cancellation stops the loop between
// attempts.
func (p RetryPolicy) Run(ctx context.Context, task func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := task(attempt)
		if !errors.Is(err, ErrAberrant) {
			return err
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return errors.Wrapf(ErrDivergence, "%d attempts: %v", attempt, err)
		}
	}
}
