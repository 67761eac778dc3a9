// Package registry maps opening ids to the Polyglot book file for each opening.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Entry is one book in the registry.
type Entry struct {
	ID   string
	Path string
}

// Registry is an immutable, ordered list of books. The order is the order of
// the keys in the index file and decides ties everywhere downstream.
type Registry struct {
	entries []Entry
	byID    map[string]int
	folded  map[string]int
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeID turns an opening name or id into a registry id: lowercase, runs
// of non-alphanumerics collapsed to "-", no leading or trailing "-".
func NormalizeID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// foldID is NormalizeID after stripping diacritics, so "Grünfeld" and
// "Grunfeld" meet.
func foldID(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return NormalizeID(s)
	}
	return NormalizeID(folded)
}

// New builds a registry from entries, keeping their order. Ids are stored
// normalized.
func New(entries []Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
		folded:  make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		id := NormalizeID(e.ID)
		if id == "" {
			return nil, fmt.Errorf("registry: empty id for %q", e.Path)
		}
		if e.Path == "" {
			return nil, fmt.Errorf("registry: empty path for %q", e.ID)
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("registry: duplicate id %q", id)
		}
		r.byID[id] = len(r.entries)
		if f := foldID(e.ID); f != "" {
			if _, ok := r.folded[f]; !ok {
				r.folded[f] = len(r.entries)
			}
		}
		r.entries = append(r.entries, Entry{ID: id, Path: e.Path})
	}
	return r, nil
}

// Load decodes an index of the form {"id": "path", ...}, preserving key order.
func Load(rd io.Reader) (*Registry, error) {
	dec := json.NewDecoder(rd)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("registry: expected a JSON object")
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		id := tok.(string)

		var path string
		if err := dec.Decode(&path); err != nil {
			return nil, fmt.Errorf("registry: path for %q: %w", id, err)
		}
		entries = append(entries, Entry{ID: id, Path: path})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	return New(entries)
}

// Open loads the index file at path.
func Open(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Len returns the number of books.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Books returns every book in registry order.
func (r *Registry) Books() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Resolve finds the book for the first key that matches, trying each key
// normalized and then with diacritics folded. Callers typically pass an
// opening id followed by its display name.
func (r *Registry) Resolve(keys ...string) (Entry, bool) {
	for _, key := range keys {
		if i, ok := r.byID[NormalizeID(key)]; ok {
			return r.entries[i], true
		}
		if i, ok := r.folded[foldID(key)]; ok {
			return r.entries[i], true
		}
	}
	return Entry{}, false
}

// WriteJSON writes the registry as an indented index object in registry order.
func (r *Registry) WriteJSON(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		id, err := json.Marshal(e.ID)
		if err != nil {
			return err
		}
		path, err := json.Marshal(e.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "\n  %s: %s", id, path)
	}
	if len(r.entries) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}
