package crossval

import (
	"github.com/pkg/errors"

	"tte-forge/internal/dataset"
)

// Fold is one contiguous validation window over the source table. Rows
// outside [ValStart, ValEnd) form the training set.
type Fold struct {
	Index    int
	ValStart int
	ValEnd   int
}

// Folds computes k folds over n rows. With width s = n/k, fold i validates
// on [s*i, s*(i+1)+1), clamped to n. The extra row makes adjacent windows
// overlap by one, and rows at or past s*k+1 are never validated.
func Folds(n, k int) ([]Fold, error) {
	if k <= 0 {
		return nil, errors.Errorf("crossval: fold count must be > 0 (got %d)", k)
	}
	if n < 0 {
		return nil, errors.Errorf("crossval: row count must be >= 0 (got %d)", n)
	}
	s := n / k
	folds := make([]Fold, k)
	for i := range folds {
		start := s * i
		end := s*(i+1) + 1
		folds[i] = Fold{Index: i, ValStart: min(start, n), ValEnd: min(end, n)}
	}
	return folds, nil
}

// Split returns the training and validation views of t for f. The training
// view concatenates the rows before ValStart and from ValEnd on.
func (f Fold) Split(t dataset.Table) (train, val dataset.Table) {
	val = t.Slice(f.ValStart, f.ValEnd)
	train = dataset.Concat(t.Slice(0, f.ValStart), t.Slice(f.ValEnd, t.Rows()))
	return train, val
}
