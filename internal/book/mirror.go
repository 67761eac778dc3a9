package book

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// Progress reports one step of a mirror run.
type Progress struct {
	Path    string
	Bytes   int
	Skipped bool
	Err     error
}

// Mirror copies books from a source into a local directory laid out the
// same way as the registry paths, so a FileSource rooted at Dir can serve
// them afterwards.
type Mirror struct {
	Source Source
	Dir    string
	// Force refetches books that are already present.
	Force bool
}

func (m *Mirror) target(name string) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if clean == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return filepath.Join(m.Dir, filepath.FromSlash(clean)), nil
}

// Has reports whether the book at name is already in the mirror.
func (m *Mirror) Has(name string) bool {
	p, err := m.target(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Fetch downloads one book, validates it and writes it into place. Existing
// files are left alone unless Force is set.
func (m *Mirror) Fetch(ctx context.Context, name string) (Progress, error) {
	p, err := m.target(name)
	if err != nil {
		return Progress{Path: name, Err: err}, err
	}
	if !m.Force && m.Has(name) {
		return Progress{Path: name, Skipped: true}, nil
	}

	data, err := m.Source.Fetch(ctx, name)
	if err != nil {
		return Progress{Path: name, Err: err}, err
	}
	if _, err := Validate(data); err != nil {
		err = fmt.Errorf("%s: %w", name, err)
		return Progress{Path: name, Err: err}, err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return Progress{Path: name, Err: err}, err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return Progress{Path: name, Err: err}, err
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return Progress{Path: name, Err: err}, err
	}
	return Progress{Path: name, Bytes: len(data)}, nil
}

// FetchAll mirrors every path in order, sending one Progress per book when
// progress is non-nil. It stops at the first context error; other failures
// are reported and skipped. The returned count is the number of books
// that failed.
func (m *Mirror) FetchAll(ctx context.Context, paths []string, progress chan<- Progress) (int, error) {
	failed := 0
	for _, name := range paths {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		p, err := m.Fetch(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return failed, ctx.Err()
			}
			failed++
		}
		if progress != nil {
			progress <- p
		}
	}
	return failed, nil
}

// FormatBytes formats a byte count for humans.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
