package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CSVOptions selects the columns of a tabular file.
type CSVOptions struct {
	// Target names the outcome column. Empty selects the last column.
	Target string
	// Category names an optional non-numeric column kept as row labels.
	Category string
	// Exclude lists columns that are neither features nor target.
	Exclude []string
}

// LoadCSV reads a headed CSV file into a Table.
func LoadCSV(path string, opts CSVOptions) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, errors.Wrap(err, "open table")
	}
	defer f.Close()

	t, err := ReadCSV(f, opts)
	if err != nil {
		return Table{}, errors.Wrapf(err, "read %s", path)
	}
	return t, nil
}

// ReadCSV parses a headed CSV stream. Every column other than the target,
// the category and the excluded ones must be numeric.
func ReadCSV(r io.Reader, opts CSVOptions) (Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return Table{}, errors.Wrap(err, "read header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	targetIdx := len(header) - 1
	if opts.Target != "" {
		targetIdx = indexOf(header, opts.Target)
		if targetIdx < 0 {
			return Table{}, errors.Errorf("target column %q not found", opts.Target)
		}
	}
	categoryIdx := -1
	if opts.Category != "" {
		categoryIdx = indexOf(header, opts.Category)
		if categoryIdx < 0 {
			return Table{}, errors.Errorf("category column %q not found", opts.Category)
		}
	}
	skip := make(map[int]bool, len(opts.Exclude)+2)
	skip[targetIdx] = true
	if categoryIdx >= 0 {
		skip[categoryIdx] = true
	}
	for _, name := range opts.Exclude {
		if i := indexOf(header, name); i >= 0 {
			skip[i] = true
		}
	}

	t := Table{Columns: make([]string, 0, len(header))}
	featureIdx := make([]int, 0, len(header))
	for i, name := range header {
		if skip[i] {
			continue
		}
		t.Columns = append(t.Columns, name)
		featureIdx = append(featureIdx, i)
	}
	if categoryIdx >= 0 {
		t.Labels = []string{}
	}

	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return Table{}, errors.Wrapf(err, "line %d", line)
		}
		row := make([]float64, len(featureIdx))
		for j, idx := range featureIdx {
			v, err := parseCell(record[idx])
			if err != nil {
				return Table{}, errors.Wrapf(err, "line %d column %s", line, header[idx])
			}
			row[j] = v
		}
		target, err := parseCell(record[targetIdx])
		if err != nil {
			return Table{}, errors.Wrapf(err, "line %d column %s", line, header[targetIdx])
		}
		t.Features = append(t.Features, row)
		t.Targets = append(t.Targets, target)
		if categoryIdx >= 0 {
			t.Labels = append(t.Labels, strings.TrimSpace(record[categoryIdx]))
		}
	}
	return t, t.Validate()
}

func parseCell(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
