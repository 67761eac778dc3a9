// Package book reads Polyglot opening books and finds the moves stored for a
// position key.
package book

import (
	"sort"

	"github.com/hailam/theorybook/internal/board"
)

// Candidate is one book move for a position.
type Candidate struct {
	Move   string // UCI notation, castling as king moves (e1g1)
	Weight uint16
	Learn  uint32
	Raw    uint16 // packed Polyglot move
}

// Book is a loaded Polyglot book backed by its raw bytes.
//
// Records must be sorted by key. Lookup does not check this: an unsorted
// book gives wrong answers silently, so files are checked once with Validate
// when they are imported.
type Book struct {
	ID   string
	Path string

	data []byte
}

// NewBook wraps the raw bytes of a book file. A trailing partial record is
// ignored.
func NewBook(id, path string, data []byte) *Book {
	n := len(data) / EntrySize
	return &Book{
		ID:   id,
		Path: path,
		data: data[:n*EntrySize],
	}
}

// Len returns the number of records in the book.
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data) / EntrySize
}

// Entry returns record i.
func (b *Book) Entry(i int) Entry {
	off := i * EntrySize
	return decodeEntry(b.data[off : off+EntrySize])
}

func (b *Book) keyAt(i int) uint64 {
	return b.Entry(i).Key
}

// Lookup returns every record stored under key, in file order. A miss
// returns an empty slice.
func (b *Book) Lookup(key uint64) []Candidate {
	if b == nil {
		return nil
	}

	n := b.Len()
	first := sort.Search(n, func(i int) bool {
		return b.keyAt(i) >= key
	})

	var result []Candidate
	for i := first; i < n; i++ {
		e := b.Entry(i)
		if e.Key != key {
			break
		}
		result = append(result, Candidate{
			Move:   DecodeMove(e.Move).String(),
			Weight: e.Weight,
			Learn:  e.Learn,
			Raw:    e.Move,
		})
	}
	return result
}

// Probe looks up a parsed position.
func (b *Book) Probe(pos *board.Position) []Candidate {
	return b.Lookup(pos.PolyglotKey())
}

// Best returns the highest-weight candidate. The first one wins ties.
func Best(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Weight > best.Weight {
			best = c
		}
	}
	return best, true
}
