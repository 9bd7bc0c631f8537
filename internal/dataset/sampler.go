package dataset

import (
	"github.com/pkg/errors"

	"tte-forge/internal/model"
)

// Batches splits t into consecutive mini-batches of at most size rows, in
// table order. The final batch holds the remainder.
func Batches(t Table, size int) ([]model.Batch, error) {
	if size <= 0 {
		return nil, errors.Errorf("dataset: batch size must be > 0 (got %d)", size)
	}
	if t.Rows() == 0 {
		return nil, nil
	}
	batches := make([]model.Batch, 0, (t.Rows()+size-1)/size)
	for start := 0; start < t.Rows(); start += size {
		b, err := NewBatch(t.Slice(start, start+size))
		if err != nil {
			return nil, errors.Wrapf(err, "batch at row %d", start)
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// NewBatch converts a table into a single batch of feature and target
// matrices.
func NewBatch(t Table) (model.Batch, error) {
	x, err := t.FeatureMatrix()
	if err != nil {
		return model.Batch{}, err
	}
	y, err := t.TargetMatrix()
	if err != nil {
		return model.Batch{}, err
	}
	return model.Batch{Inputs: x, Targets: y}, nil
}

// ReconstructionBatches pairs inputs with clean targets of the same shape,
// in order, for autoencoder training.
func ReconstructionBatches(inputs, targets [][]float64, size int) ([]model.Batch, error) {
	if size <= 0 {
		return nil, errors.Errorf("dataset: batch size must be > 0 (got %d)", size)
	}
	if len(inputs) != len(targets) {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d input rows, %d target rows", len(inputs), len(targets))
	}
	var batches []model.Batch
	for start := 0; start < len(inputs); start += size {
		end := start + size
		if end > len(inputs) {
			end = len(inputs)
		}
		x, err := Matrix(inputs[start:end])
		if err != nil {
			return nil, errors.Wrapf(err, "batch at row %d", start)
		}
		y, err := Matrix(targets[start:end])
		if err != nil {
			return nil, errors.Wrapf(err, "batch at row %d", start)
		}
		batches = append(batches, model.Batch{Inputs: x, Targets: y})
	}
	return batches, nil
}
