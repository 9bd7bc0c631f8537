package trainer

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"tte-forge/internal/dataset"
	"tte-forge/internal/model"
)

// Predictor is any trained network that maps feature rows to output rows.
type Predictor interface {
	Forward(x mat.Matrix) *mat.Dense
	Inputs() int
}

// Entry is one element of a per-example result sequence. End marks the
// early stop of the sequence: consumers ignore it and everything after it.
type Entry[T any] struct {
	Value T
	End   bool
}

// Values returns the entries preceding the first End marker.
func Values[T any](entries []Entry[T]) []T {
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		if e.End {
			break
		}
		out = append(out, e.Value)
	}
	return out
}

// Result holds index-aligned per-example losses, predictions and targets.
// Predictions and targets are in display form with the enclosing brackets
// removed, e.g. "12.5".
type Result struct {
	Losses      []Entry[float64]
	Predictions []Entry[string]
	Actuals     []Entry[string]
}

// Len returns the number of evaluated examples.
func (r Result) Len() int {
	return len(r.Losses)
}

// Evaluate runs p over table one example at a time and records the smooth
// L1 loss, prediction and target of each row.
func Evaluate(p Predictor, table dataset.Table) (Result, error) {
	if err := table.Validate(); err != nil {
		return Result{}, err
	}
	if table.Rows() > 0 && table.Width() != p.Inputs() {
		return Result{}, errors.Wrapf(dataset.ErrShapeMismatch, "table has %d features, network expects %d", table.Width(), p.Inputs())
	}
	loss := model.SmoothL1{Beta: 1}
	res := Result{
		Losses:      make([]Entry[float64], 0, table.Rows()),
		Predictions: make([]Entry[string], 0, table.Rows()),
		Actuals:     make([]Entry[string], 0, table.Rows()),
	}
	for i, row := range table.Features {
		x := mat.NewDense(1, len(row), append([]float64(nil), row...))
		y := mat.NewDense(1, 1, []float64{table.Targets[i]})
		out := p.Forward(x)

		res.Losses = append(res.Losses, Entry[float64]{Value: loss.Compute(out, y)})
		res.Predictions = append(res.Predictions, Entry[string]{Value: displayRow(out.RawRowView(0))})
		res.Actuals = append(res.Actuals, Entry[string]{Value: displayRow(y.RawRowView(0))})
	}
	return res, nil
}

// Predict applies p to every row in a single batched pass. An empty input
// yields an empty, non-nil result.
func Predict(p Predictor, rows [][]float64) ([][]float64, error) {
	if len(rows) == 0 {
		return [][]float64{}, nil
	}
	x, err := dataset.Matrix(rows)
	if err != nil {
		return nil, err
	}
	if _, c := x.Dims(); c != p.Inputs() {
		return nil, errors.Wrapf(dataset.ErrShapeMismatch, "rows have %d features, network expects %d", c, p.Inputs())
	}
	return dataset.Rows(p.Forward(x)), nil
}

// displayRow formats v the way a slice prints and drops the first and last
// characters, which are the brackets.
func displayRow(v []float64) string {
	s := fmt.Sprint(v)
	return s[1 : len(s)-1]
}
