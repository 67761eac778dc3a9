package book

import (
	"encoding/binary"
	"sort"
)

// EntrySize is the size in bytes of one Polyglot record:
// 8 bytes key, 2 bytes move, 2 bytes weight, 4 bytes learn, all big-endian.
const EntrySize = 16

// Entry is one raw Polyglot record.
type Entry struct {
	Key    uint64
	Move   uint16
	Weight uint16
	Learn  uint32
}

func decodeEntry(b []byte) Entry {
	return Entry{
		Key:    binary.BigEndian.Uint64(b[0:8]),
		Move:   binary.BigEndian.Uint16(b[8:10]),
		Weight: binary.BigEndian.Uint16(b[10:12]),
		Learn:  binary.BigEndian.Uint32(b[12:16]),
	}
}

// AppendEntry appends the 16-byte encoding of e to dst.
func AppendEntry(dst []byte, e Entry) []byte {
	dst = binary.BigEndian.AppendUint64(dst, e.Key)
	dst = binary.BigEndian.AppendUint16(dst, e.Move)
	dst = binary.BigEndian.AppendUint16(dst, e.Weight)
	return binary.BigEndian.AppendUint32(dst, e.Learn)
}

// EncodeEntries serializes entries as a Polyglot book, sorting them by key
// first. Entries sharing a key keep their relative order.
func EncodeEntries(entries []Entry) []byte {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})

	buf := make([]byte, 0, len(sorted)*EntrySize)
	for _, e := range sorted {
		buf = AppendEntry(buf, e)
	}
	return buf
}
