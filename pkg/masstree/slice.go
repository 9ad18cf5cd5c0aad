// pkg/masstree/slice.go
package masstree

import "encoding/binary"

// sliceTag is the 2-bit tag carried by a leaf entry's slice-info byte.
type sliceTag uint8

const (
	tagValue    sliceTag = 0 // terminal user value
	tagLayer    sliceTag = 1 // the entry's value slot is a child layer root
	tagUnstable sliceTag = 2 // transient, only ever set under the leaf lock;
	// kept as a named constant for parity with the original's tag space —
	// no write path in this port ever publishes it to a reader (spec.md §9
	// Open Question).
)

// sliceInfo packs a 2-bit tag and a 0..8 slice length into one byte, per
// spec.md §3.
type sliceInfo uint8

func makeSliceInfo(tag sliceTag, length int) sliceInfo {
	return sliceInfo(uint8(tag)<<6 | uint8(length&0x3f))
}

func (si sliceInfo) tag() sliceTag { return sliceTag(si >> 6) }
func (si sliceInfo) length() int   { return int(si & 0x3f) }

// keySliceAt extracts the 8-byte big-endian slice of key at trie depth
// (0-indexed, one layer per 8 bytes). length is the number of real key
// bytes contributed (0..8); bytes beyond the key's end are zero-padded into
// the 64-bit value but do not count toward length, so two keys that only
// differ by trailing length (e.g. "AB" vs "AB\x00\x00\x00\x00\x00\x00")
// never compare equal despite an identical zero-padded slice value. more
// reports whether the key has further bytes beyond this slice, i.e.
// whether this entry must carry tagLayer instead of tagValue.
func keySliceAt(key []byte, depth int) (value uint64, length int, more bool) {
	start := depth * 8
	if start >= len(key) {
		return 0, 0, false
	}
	end := start + 8
	if end > len(key) {
		end = len(key)
	}
	length = end - start

	var buf [8]byte
	copy(buf[:], key[start:end])
	value = binary.BigEndian.Uint64(buf[:])
	more = end < len(key)
	return
}

// compareSlice orders two (value, length) slice entries the way spec.md
// §3 invariant 1 requires: primarily by the big-endian integer value,
// ties broken by length.
func compareSlice(aVal uint64, aLen int, bVal uint64, bLen int) int {
	switch {
	case aVal < bVal:
		return -1
	case aVal > bVal:
		return 1
	case aLen < bLen:
		return -1
	case aLen > bLen:
		return 1
	default:
		return 0
	}
}
