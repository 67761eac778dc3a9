package book

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Validation failures reported by Validate.
var (
	ErrEmptyBook  = errors.New("book is empty")
	ErrMisaligned = errors.New("book size is not a multiple of 16 bytes")
	ErrUnsorted   = errors.New("polyglot keys are not sorted")
)

// Stats describes a validated book.
type Stats struct {
	Bytes     int
	Entries   int
	Positions int // distinct keys
}

// Validate checks that data is a well-formed Polyglot book: non-empty, made
// of whole records, and sorted by key. Lookups assume all three, so books are
// validated once when imported rather than on every probe.
func Validate(data []byte) (Stats, error) {
	st := Stats{Bytes: len(data)}
	if len(data) == 0 {
		return st, ErrEmptyBook
	}
	if len(data)%EntrySize != 0 {
		return st, fmt.Errorf("%w: %d bytes", ErrMisaligned, len(data))
	}

	st.Entries = len(data) / EntrySize
	var prev uint64
	for i := 0; i < st.Entries; i++ {
		key := binary.BigEndian.Uint64(data[i*EntrySize:])
		if i > 0 && key < prev {
			return st, fmt.Errorf("%w at entry #%d", ErrUnsorted, i)
		}
		if i == 0 || key != prev {
			st.Positions++
		}
		prev = key
	}
	return st, nil
}
