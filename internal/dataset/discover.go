package dataset

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

var tableRegexp = regexp.MustCompile(`(?i)\.csv$`)

// DiscoverTables returns paths to CSV tables beneath root, sorted.
func DiscoverTables(root string) ([]string, error) {
	entries := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if tableRegexp.MatchString(d.Name()) {
			entries = append(entries, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "discover tables")
	}
	sort.Strings(entries)
	return entries, nil
}
