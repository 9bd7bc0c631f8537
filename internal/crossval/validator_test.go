package crossval

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tte-forge/internal/dataset"
	"tte-forge/internal/trainer"
)

func rowsTable(n int) dataset.Table {
	t := dataset.Table{}
	for i := 0; i < n; i++ {
		t.Features = append(t.Features, []float64{float64(i)})
		t.Targets = append(t.Targets, float64(i))
	}
	return t
}

func TestFoldsFormula(t *testing.T) {
	tests := []struct {
		name string
		n, k int
		want []Fold
	}{
		{"even", 9, 3, []Fold{{0, 0, 4}, {1, 3, 7}, {2, 6, 9}}},
		{"remainder", 11, 3, []Fold{{0, 0, 4}, {1, 3, 7}, {2, 6, 10}}},
		{"more folds than rows", 2, 5, []Fold{{0, 0, 1}, {1, 0, 1}, {2, 0, 1}, {3, 0, 1}, {4, 0, 1}}},
		{"single fold", 4, 1, []Fold{{0, 0, 4}}},
		{"empty", 0, 2, []Fold{{0, 0, 0}, {1, 0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Folds(tt.n, tt.k)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Folds(10, 0)
	assert.Error(t, err)
}

func TestSplitPreservesOrder(t *testing.T) {
	train, val := Fold{Index: 1, ValStart: 3, ValEnd: 7}.Split(rowsTable(10))
	assert.Equal(t, []float64{3, 4, 5, 6}, val.Targets)
	assert.Equal(t, []float64{0, 1, 2, 7, 8, 9}, train.Targets)
}

type recorder struct {
	trainSizes []int
	valSizes   []int
	epochs     []int
	batchSizes []int
}

func (r *recorder) validator(k int, eval EvaluateFunc) Validator {
	return Validator{
		Epochs:    30,
		BatchSize: 4,
		Folds:     k,
		Train: func(_ context.Context, train dataset.Table, epochs, batchSize int) (trainer.Predictor, error) {
			r.trainSizes = append(r.trainSizes, train.Rows())
			r.epochs = append(r.epochs, epochs)
			r.batchSizes = append(r.batchSizes, batchSize)
			return nil, nil
		},
		Evaluate: func(p trainer.Predictor, val dataset.Table) (trainer.Result, error) {
			r.valSizes = append(r.valSizes, val.Rows())
			if eval != nil {
				return eval(p, val)
			}
			return echoResult(val), nil
		},
		Logger: log.New(&bytes.Buffer{}, "", 0),
	}
}

func echoResult(val dataset.Table) trainer.Result {
	var res trainer.Result
	for _, y := range val.Targets {
		s := strconv.FormatFloat(y, 'g', -1, 64)
		res.Losses = append(res.Losses, trainer.Entry[float64]{Value: y})
		res.Predictions = append(res.Predictions, trainer.Entry[string]{Value: s})
		res.Actuals = append(res.Actuals, trainer.Entry[string]{Value: s})
	}
	return res
}

func TestRunExecutesEveryFoldWithDocumentedSizes(t *testing.T) {
	for _, tc := range []struct{ n, k int }{{10, 3}, {11, 3}, {20, 5}, {7, 7}} {
		r := &recorder{}
		sum, err := r.validator(tc.k, nil).Run(context.Background(), rowsTable(tc.n))
		require.NoError(t, err)

		require.Len(t, r.trainSizes, tc.k)
		require.Len(t, sum.Folds, tc.k)
		s := tc.n / tc.k
		for i := 0; i < tc.k; i++ {
			end := min(s*(i+1)+1, tc.n)
			wantVal := end - s*i
			assert.Equal(t, wantVal, r.valSizes[i], "n=%d k=%d fold=%d", tc.n, tc.k, i)
			assert.Equal(t, tc.n-wantVal, r.trainSizes[i])
			assert.GreaterOrEqual(t, r.trainSizes[i]+r.valSizes[i], tc.n)
		}
		total := 0
		for _, v := range r.valSizes {
			total += v
		}
		assert.Len(t, sum.Losses, total)
		assert.Len(t, sum.Predictions, total)
		assert.Len(t, sum.Actuals, total)
		assert.Equal(t, []int{30}, r.epochs[:1])
		assert.Equal(t, []int{4}, r.batchSizes[:1])
	}
}

func TestRunAggregatesOverlappingWindows(t *testing.T) {
	r := &recorder{}
	sum, err := r.validator(3, nil).Run(context.Background(), rowsTable(9))
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3", "3", "4", "5", "6", "6", "7", "8"}, sum.Actuals)

	preds, err := sum.PredictionValues()
	require.NoError(t, err)
	assert.Equal(t, 3.0, preds[3])
	actuals, err := sum.ActualValues()
	require.NoError(t, err)
	assert.Len(t, actuals, 11)
}

func TestRunStopsSequencesAtEndMarker(t *testing.T) {
	r := &recorder{}
	eval := func(_ trainer.Predictor, val dataset.Table) (trainer.Result, error) {
		res := echoResult(val)
		res.Predictions[1] = trainer.Entry[string]{End: true}
		res.Losses[0] = trainer.Entry[float64]{End: true}
		return res, nil
	}
	sum, err := r.validator(2, eval).Run(context.Background(), rowsTable(6))
	require.NoError(t, err)
	// folds validate [0,4) and [3,6)
	assert.Equal(t, []string{"0", "3"}, sum.Predictions)
	assert.Equal(t, []string{"0", "1", "2", "3", "3", "4", "5"}, sum.Actuals)
	assert.Empty(t, sum.Losses)
}

func TestRunPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	v := Validator{
		Folds: 2,
		Train: func(context.Context, dataset.Table, int, int) (trainer.Predictor, error) {
			return nil, boom
		},
		Evaluate: func(trainer.Predictor, dataset.Table) (trainer.Result, error) {
			return trainer.Result{}, nil
		},
		Logger: log.New(&bytes.Buffer{}, "", 0),
	}
	_, err := v.Run(context.Background(), rowsTable(4))
	assert.True(t, errors.Is(err, boom))

	_, err = Validator{Folds: 2}.Run(context.Background(), rowsTable(4))
	assert.Error(t, err)
}

type countingProgress struct{ last, max int }

func (c *countingProgress) Set(current, max int) { c.last, c.max = current, max }

func TestRunWithRegressionNetworks(t *testing.T) {
	table := dataset.Table{}
	for i := 0; i < 24; i++ {
		x := float64(i) / 24
		table.Features = append(table.Features, []float64{x, x * x})
		table.Targets = append(table.Targets, 3*x)
	}
	reg := trainer.DefaultRegressionOptions()
	reg.Hidden1, reg.Hidden2 = 8, 8
	reg.Seed = 5
	progress := &countingProgress{}

	sum, err := Run(context.Background(), table, Options{
		Epochs:     20,
		BatchSize:  8,
		Folds:      4,
		Regression: reg,
		Progress:   progress,
		Logger:     log.New(&bytes.Buffer{}, "", 0),
	})
	require.NoError(t, err)
	assert.Len(t, sum.Folds, 4)
	assert.Len(t, sum.Losses, 4*6+3)
	assert.Equal(t, 4, progress.last)
	assert.Equal(t, 4, progress.max)
}
