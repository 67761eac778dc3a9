package registry

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hailam/theorybook/internal/book"
)

// DefaultPrefix is the path prefix written in front of book file names.
const DefaultPrefix = "books/general"

// Report is the validation result for one imported book file.
type Report struct {
	File  string
	ID    string
	Stats book.Stats
}

// Build scans dir for *.bin files, validates each one and returns a registry
// with ids derived from the file names and paths under prefix. Any invalid
// book, empty id or id collision fails the whole build.
func Build(dir, prefix string) (*Registry, []Report, error) {
	files, err := listBinFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no .bin books found in %s", dir)
	}

	reports := make([]Report, 0, len(files))
	entries := make([]Entry, 0, len(files))
	seen := make(map[string]string, len(files))

	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, err
		}
		st, err := book.Validate(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", name, err)
		}

		stem := name[:len(name)-len(filepath.Ext(name))]
		id := NormalizeID(stem)
		if id == "" {
			return nil, nil, fmt.Errorf("cannot build opening id from file name: %s", name)
		}
		if prev, dup := seen[id]; dup {
			return nil, nil, fmt.Errorf("duplicate opening id %q from %s and %s", id, prev, name)
		}
		seen[id] = name

		entries = append(entries, Entry{ID: id, Path: path.Join(prefix, name)})
		reports = append(reports, Report{File: name, ID: id, Stats: st})
	}

	r, err := New(entries)
	if err != nil {
		return nil, nil, err
	}
	return r, reports, nil
}

func listBinFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), ".bin") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
