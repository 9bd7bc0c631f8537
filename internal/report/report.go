package report

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Row is one cross-validated example.
type Row struct {
	Prediction string
	Actual     string
	Loss       float64
}

// WriteCSV writes rows with a prediction,actual,loss header.
func WriteCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"prediction", "actual", "loss"}); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, r := range rows {
		rec := []string{r.Prediction, r.Actual, strconv.FormatFloat(r.Loss, 'g', -1, 64)}
		if err := w.Write(rec); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flush report")
	}
	return f.Close()
}

// GroupMean is the mean predicted outcome of one category.
type GroupMean struct {
	Category string
	Mean     float64
	Count    int
}

// GroupMeans averages values per label and orders the groups by mean,
// highest first. Ties keep label order.
func GroupMeans(labels []string, values []float64) ([]GroupMean, error) {
	if len(labels) != len(values) {
		return nil, errors.Errorf("report: %d labels, %d values", len(labels), len(values))
	}
	byLabel := make(map[string][]float64)
	var order []string
	for i, l := range labels {
		if _, ok := byLabel[l]; !ok {
			order = append(order, l)
		}
		byLabel[l] = append(byLabel[l], values[i])
	}
	sort.Strings(order)
	out := make([]GroupMean, 0, len(order))
	for _, l := range order {
		vs := byLabel[l]
		out = append(out, GroupMean{Category: l, Mean: stat.Mean(vs, nil), Count: len(vs)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out, nil
}
