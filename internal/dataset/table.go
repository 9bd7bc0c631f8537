package dataset

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShapeMismatch indicates features and targets disagree on row count.
	ErrShapeMismatch = errors.New("dataset: feature and target row counts differ")
	// ErrRagged indicates feature rows of differing width.
	ErrRagged = errors.New("dataset: feature rows have differing widths")
	// ErrEmptyTable indicates an operation that needs at least one row.
	ErrEmptyTable = errors.New("dataset: table has no rows")
)

// Table is an ordered sequence of (feature row, target) pairs. Slicing and
// concatenation produce views that share row storage with the source; no
// method mutates the rows.
type Table struct {
	Columns  []string
	Features [][]float64
	Targets  []float64
	// Labels optionally carries one category value per row.
	Labels []string
}

// NewTable validates features and targets and wraps them in a Table.
func NewTable(features [][]float64, targets []float64) (Table, error) {
	t := Table{Features: features, Targets: targets}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Validate checks row alignment and a consistent feature width.
func (t Table) Validate() error {
	if len(t.Features) != len(t.Targets) {
		return errors.Wrapf(ErrShapeMismatch, "%d feature rows, %d targets", len(t.Features), len(t.Targets))
	}
	if t.Labels != nil && len(t.Labels) != len(t.Features) {
		return errors.Wrapf(ErrShapeMismatch, "%d feature rows, %d labels", len(t.Features), len(t.Labels))
	}
	width := -1
	for i, row := range t.Features {
		if width < 0 {
			width = len(row)
			continue
		}
		if len(row) != width {
			return errors.Wrapf(ErrRagged, "row %d has %d columns, want %d", i, len(row), width)
		}
	}
	if t.Columns != nil && width >= 0 && len(t.Columns) != width {
		return errors.Wrapf(ErrRagged, "%d column names for %d columns", len(t.Columns), width)
	}
	return nil
}

// Rows returns the number of examples.
func (t Table) Rows() int {
	return len(t.Features)
}

// Width returns the feature count, or len(Columns) for an empty table.
func (t Table) Width() int {
	if len(t.Features) == 0 {
		return len(t.Columns)
	}
	return len(t.Features[0])
}

// Slice returns rows [start, end). Bounds are clamped to [0, Rows()] and an
// inverted range yields an empty table.
func (t Table) Slice(start, end int) Table {
	n := t.Rows()
	start = clamp(start, 0, n)
	end = clamp(end, 0, n)
	if end < start {
		end = start
	}
	out := Table{
		Columns:  t.Columns,
		Features: t.Features[start:end:end],
		Targets:  t.Targets[start:end:end],
	}
	if t.Labels != nil {
		out.Labels = t.Labels[start:end:end]
	}
	return out
}

// Concat appends b's rows after a's, preserving order within each.
func Concat(a, b Table) Table {
	cols := a.Columns
	if cols == nil {
		cols = b.Columns
	}
	out := Table{
		Columns:  cols,
		Features: make([][]float64, 0, a.Rows()+b.Rows()),
		Targets:  make([]float64, 0, a.Rows()+b.Rows()),
	}
	out.Features = append(append(out.Features, a.Features...), b.Features...)
	out.Targets = append(append(out.Targets, a.Targets...), b.Targets...)
	if a.Labels != nil || b.Labels != nil {
		out.Labels = make([]string, 0, a.Rows()+b.Rows())
		out.Labels = append(append(out.Labels, padLabels(a)...), padLabels(b)...)
	}
	return out
}

// FeatureMatrix copies the features into a rows × width matrix.
func (t Table) FeatureMatrix() (*mat.Dense, error) {
	return Matrix(t.Features)
}

// TargetMatrix copies the targets into a rows × 1 matrix.
func (t Table) TargetMatrix() (*mat.Dense, error) {
	if len(t.Targets) == 0 {
		return nil, ErrEmptyTable
	}
	return mat.NewDense(len(t.Targets), 1, append([]float64(nil), t.Targets...)), nil
}

// Matrix copies rows into a dense matrix.
func Matrix(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyTable
	}
	width := len(rows[0])
	data := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, errors.Wrapf(ErrRagged, "row %d has %d columns, want %d", i, len(row), width)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), width, data), nil
}

// Rows converts a matrix back into row slices.
func Rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(make([]float64, c), i, m)
	}
	return out
}

func padLabels(t Table) []string {
	if t.Labels != nil {
		return t.Labels
	}
	return make([]string, t.Rows())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
