package metrics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes how well predictions track actual outcomes.
type Summary struct {
	N        int
	MAE      float64
	RMSE     float64
	MeanLoss float64
	// Pearson is NaN when either series is constant.
	Pearson float64
}

// Summarize compares index-aligned predictions and actuals. losses may be
// shorter or empty; MeanLoss is then NaN.
func Summarize(predictions, actuals, losses []float64) (Summary, error) {
	if len(predictions) != len(actuals) {
		return Summary{}, errors.Errorf("metrics: %d predictions, %d actuals", len(predictions), len(actuals))
	}
	s := Summary{N: len(predictions), MeanLoss: math.NaN(), Pearson: math.NaN()}
	if s.N == 0 {
		s.MAE, s.RMSE = math.NaN(), math.NaN()
		return s, nil
	}
	residuals := make([]float64, s.N)
	floats.SubTo(residuals, predictions, actuals)
	s.MAE = floats.Norm(residuals, 1) / float64(s.N)
	s.RMSE = floats.Norm(residuals, 2) / math.Sqrt(float64(s.N))
	if len(losses) > 0 {
		s.MeanLoss = stat.Mean(losses, nil)
	}
	if s.N > 1 {
		s.Pearson = stat.Correlation(predictions, actuals, nil)
	}
	return s, nil
}
