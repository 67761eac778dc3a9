package commands

import (
	"context"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"

	"github.com/hailam/theorybook/internal/book"
	"github.com/hailam/theorybook/internal/registry"
)

func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return cmd.Execute(context.Background(), fs)
}

func TestParseSwitch(t *testing.T) {
	tests := []struct {
		in     string
		on, ok bool
	}{
		{"on", true, true},
		{"YES", true, true},
		{"0", false, true},
		{"off", false, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		on, ok := parseSwitch(tt.in)
		if on != tt.on || ok != tt.ok {
			t.Errorf("parseSwitch(%q) = %v, %v", tt.in, on, ok)
		}
	}
}

func TestIndexAndFetch(t *testing.T) {
	src := t.TempDir()
	data := book.EncodeEntries([]book.Entry{{Key: 1, Move: 796, Weight: 2}})
	for _, name := range []string{"Sicilian Defense.bin", "French Defense.bin"} {
		if err := os.WriteFile(filepath.Join(src, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}

	indexPath := filepath.Join(t.TempDir(), "out", "books.index.json")
	if st := run(t, &Index{}, "-o", indexPath, src); st != subcommands.ExitSuccess {
		t.Fatalf("index exited with %v", st)
	}
	reg, err := registry.Open(indexPath)
	if err != nil {
		t.Fatalf("Open index: %v", err)
	}
	books := reg.Books()
	if len(books) != 2 || books[0].ID != "french-defense" || books[1].ID != "sicilian-defense" {
		t.Fatalf("Unexpected index %+v", books)
	}

	// Serve the source directory under the registry prefix.
	srv := httptest.NewServer(http.StripPrefix("/"+registry.DefaultPrefix+"/", http.FileServer(http.Dir(src))))
	defer srv.Close()

	dest := t.TempDir()
	st := run(t, &Fetch{}, "-registry", indexPath, "-books-url", srv.URL, "-dir", dest)
	if st != subcommands.ExitSuccess {
		t.Fatalf("fetch exited with %v", st)
	}
	for _, e := range books {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(e.Path))); err != nil {
			t.Errorf("Book %s not mirrored: %v", e.ID, err)
		}
	}
}

func TestFetchNeedsURL(t *testing.T) {
	t.Setenv("THEORYBOOK_BOOKS_URL", "")
	if st := run(t, &Fetch{}, "-registry", filepath.Join(t.TempDir(), "none.json")); st != subcommands.ExitUsageError {
		t.Errorf("Expected usage error, got %v", st)
	}
}

func TestValidateRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.bin")
	bad := filepath.Join(dir, "bad.bin")
	os.WriteFile(good, book.EncodeEntries([]book.Entry{{Key: 1}}), 0644)
	os.WriteFile(bad, []byte{1, 2, 3}, 0644)

	if st := run(t, &Validate{}, good); st != subcommands.ExitSuccess {
		t.Errorf("good book: exit %v", st)
	}
	if st := run(t, &Validate{}, good, bad); st != subcommands.ExitFailure {
		t.Errorf("bad book: exit %v", st)
	}
}
