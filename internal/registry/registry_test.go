package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hailam/theorybook/internal/book"
)

const index = `{
  "sicilian-defense": "books/general/sicilian-defense.bin",
  "french-defense": "books/general/french-defense.bin",
  "grunfeld-defense": "books/general/grunfeld-defense.bin",
  "caro-kann-defense": "books/general/caro-kann-defense.bin"
}`

func TestLoadPreservesOrder(t *testing.T) {
	r, err := Load(strings.NewReader(index))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"sicilian-defense", "french-defense", "grunfeld-defense", "caro-kann-defense"}
	books := r.Books()
	if len(books) != len(want) || r.Len() != len(want) {
		t.Fatalf("Expected %d books, got %d", len(want), len(books))
	}
	for i, id := range want {
		if books[i].ID != id {
			t.Errorf("book %d: expected %s, got %s", i, id, books[i].ID)
		}
	}

	// Books returns a copy.
	books[0].ID = "changed"
	if r.Books()[0].ID != "sicilian-defense" {
		t.Error("Books exposed internal state")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"not an object": `["a"]`,
		"bad path":      `{"a": 3}`,
		"duplicate":     `{"French Defense": "a.bin", "french-defense": "b.bin"}`,
		"empty id":      `{"--": "a.bin"}`,
		"empty path":    `{"a": ""}`,
		"truncated":     `{"a": "a.bin"`,
	}
	for name, in := range tests {
		if _, err := Load(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestNormalizeID(t *testing.T) {
	tests := map[string]string{
		"Sicilian Defense":        "sicilian-defense",
		"  Queen's Gambit  ":      "queen-s-gambit",
		"caro-kann-defense":       "caro-kann-defense",
		"King's Indian, Sämisch":  "king-s-indian-s-misch",
		"--Ruy__Lopez--":          "ruy-lopez",
		"":                        "",
	}
	for in, want := range tests {
		if got := NormalizeID(in); got != want {
			t.Errorf("NormalizeID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	r, err := Load(strings.NewReader(index))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		keys []string
		want string
	}{
		{[]string{"french-defense"}, "french-defense"},
		{[]string{"French Defense"}, "french-defense"},
		{[]string{"Grünfeld Defense"}, "grunfeld-defense"},
		{[]string{"unknown-id", "Caro-Kann Defense"}, "caro-kann-defense"},
	}
	for _, tc := range tests {
		e, ok := r.Resolve(tc.keys...)
		if !ok || e.ID != tc.want {
			t.Errorf("Resolve(%q) = %q, %v; want %q", tc.keys, e.ID, ok, tc.want)
		}
	}

	if _, ok := r.Resolve("Dutch Defense"); ok {
		t.Error("Expected unknown opening not to resolve")
	}
	if _, ok := r.Resolve(); ok {
		t.Error("Expected no keys not to resolve")
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	r, err := Load(strings.NewReader(index))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != index+"\n" {
		t.Errorf("Unexpected output:\n%s", buf.String())
	}

	empty, _ := New(nil)
	buf.Reset()
	if err := empty.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{}\n" {
		t.Errorf("Expected {} for an empty registry, got %q", buf.String())
	}
}

func writeBook(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	data := book.EncodeEntries([]book.Entry{{Key: 1, Move: 796, Weight: 3}, {Key: 2, Move: 796}})
	writeBook(t, dir, "Sicilian Defense.bin", data)
	writeBook(t, dir, "caro-kann-defense.bin", data)
	writeBook(t, dir, "notes.txt", []byte("ignored"))

	r, reports, err := Build(dir, DefaultPrefix)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	books := r.Books()
	if len(books) != 2 || len(reports) != 2 {
		t.Fatalf("Expected 2 books, got %d", len(books))
	}
	// Files are taken in name order.
	if books[0].ID != "sicilian-defense" || books[0].Path != "books/general/Sicilian Defense.bin" {
		t.Errorf("Unexpected first entry %+v", books[0])
	}
	if books[1].ID != "caro-kann-defense" {
		t.Errorf("Unexpected second entry %+v", books[1])
	}
	if reports[0].Stats.Entries != 2 || reports[0].Stats.Positions != 2 {
		t.Errorf("Unexpected stats %+v", reports[0].Stats)
	}
}

func TestBuildRejects(t *testing.T) {
	good := book.EncodeEntries([]book.Entry{{Key: 1, Move: 796}})

	t.Run("collision", func(t *testing.T) {
		dir := t.TempDir()
		writeBook(t, dir, "French Defense.bin", good)
		writeBook(t, dir, "french-defense.bin", good)
		if _, _, err := Build(dir, DefaultPrefix); err == nil {
			t.Error("Expected an id collision error")
		}
	})
	t.Run("invalid book", func(t *testing.T) {
		dir := t.TempDir()
		writeBook(t, dir, "broken.bin", good[:10])
		if _, _, err := Build(dir, DefaultPrefix); err == nil {
			t.Error("Expected a validation error")
		}
	})
	t.Run("empty dir", func(t *testing.T) {
		if _, _, err := Build(t.TempDir(), DefaultPrefix); err == nil {
			t.Error("Expected an error for a directory with no books")
		}
	})
}
