package book

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMirrorFetch(t *testing.T) {
	dir := t.TempDir()
	src := &countingSource{books: map[string][]byte{
		"books/general/a.bin":   testBookData(),
		"books/general/bad.bin": {1, 2, 3},
	}}
	m := &Mirror{Source: src, Dir: dir}

	p, err := m.Fetch(context.Background(), "books/general/a.bin")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if p.Skipped || p.Bytes != 16 {
		t.Errorf("Unexpected progress %+v", p)
	}
	if !m.Has("books/general/a.bin") {
		t.Error("Expected book in mirror")
	}
	if _, err := os.Stat(filepath.Join(dir, "books", "general", "a.bin.tmp")); err == nil {
		t.Error("Temporary file left behind")
	}

	// Present books are not fetched again.
	p, err = m.Fetch(context.Background(), "books/general/a.bin")
	if err != nil || !p.Skipped {
		t.Errorf("Expected skip, got %+v, %v", p, err)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("Expected 1 fetch, got %d", n)
	}

	if _, err := m.Fetch(context.Background(), "books/general/bad.bin"); err == nil {
		t.Error("Expected invalid book to be rejected")
	}
	if m.Has("books/general/bad.bin") {
		t.Error("Invalid book written to mirror")
	}

	// The mirror is readable through a FileSource.
	data, err := FileSource{Root: dir}.Fetch(context.Background(), "books/general/a.bin")
	if err != nil || len(data) != 16 {
		t.Errorf("FileSource read %d bytes, %v", len(data), err)
	}
}

func TestMirrorFetchAll(t *testing.T) {
	src := &countingSource{books: map[string][]byte{"a.bin": testBookData(), "b.bin": testBookData()}}
	m := &Mirror{Source: src, Dir: t.TempDir()}

	progress := make(chan Progress, 3)
	failed, err := m.FetchAll(context.Background(), []string{"a.bin", "missing.bin", "b.bin"}, progress)
	close(progress)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if failed != 1 {
		t.Errorf("Expected 1 failure, got %d", failed)
	}

	var got []string
	for p := range progress {
		if p.Err != nil {
			got = append(got, "!"+p.Path)
		} else {
			got = append(got, p.Path)
		}
	}
	want := []string{"a.bin", "!missing.bin", "b.bin"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Progress %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestMirrorFetchAllCancelled(t *testing.T) {
	src := &countingSource{books: map[string][]byte{"a.bin": testBookData()}}
	m := &Mirror{Source: src, Dir: t.TempDir()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.FetchAll(ctx, []string{"a.bin"}, nil); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if src.calls.Load() != 0 {
		t.Error("Fetched after cancellation")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}
