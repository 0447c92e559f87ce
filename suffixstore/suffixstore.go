// Package suffixstore implements component H: the shared tail arena
// and its bit-packed pointer array, grounded on the reversed-suffix
// sharing pass of original_source/include/fst.hpp's Trie constructor
// (the second traversal that discovers each key's (key_id, level) by
// re-running the very same lookup code used at query time, then
// shares equal tails via a reversed-lexicographic sort).
package suffixstore

import (
	"bytes"
	"io"
	"sort"

	"github.com/kampersanda/fast-succinct-trie/compactarray"
	"github.com/kampersanda/fast-succinct-trie/errutil"
)

// SuffixStore holds the shared tail arena and the per-key-ID pointer
// array into it.
type SuffixStore struct {
	ptrs  *compactarray.CompactArray
	arena []byte
}

// Locator discovers the (key_id, level) pair for a key by
// re-traversing the already-built trie, exactly as ExactSearch does.
// Implemented by the fst facade so the build and query code paths
// share one source of truth for key-ID assignment.
type Locator func(key []byte) (keyID uint32, level uint32, ok bool)

type tailRecord struct {
	keyID uint32
	tail  []byte
}

// Build collects every key's residual tail via locate, shares equal
// tails by a reversed-suffix sort (spec §4.H), and bit-packs the
// resulting pointer array.
func Build(keys [][]byte, numKeys uint32, locate Locator) (*SuffixStore, error) {
	records := make([]tailRecord, 0, numKeys)
	for _, k := range keys {
		id, level, ok := locate(k)
		if !ok {
			continue // no terminal position in the trie: no tail is recorded
		}
		records = append(records, tailRecord{keyID: id, tail: append([]byte(nil), k[level:]...)})
	}

	sort.Slice(records, func(i, j int) bool {
		return reversedLess(records[i].tail, records[j].tail)
	})

	ptrInput := make([]uint32, numKeys)
	arena := []byte{0x00} // leading sentinel; offset 0 means empty tail

	var prevTail []byte
	var prevOffset uint32
	haveShared := false
	// Walk the ascending-by-reversed-suffix order back to front, so the
	// longest of any run of common-suffix tails is stored first and the
	// shorter ones that follow point into the middle of its bytes.
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		errutil.BugOn(rec.keyID >= numKeys, "suffixstore: key id %d out of range [0,%d)", rec.keyID, numKeys)
		if len(rec.tail) == 0 {
			ptrInput[rec.keyID] = 0
			continue // empty tails always map to the leading sentinel
		}

		if haveShared {
			if match := commonSuffixLen(rec.tail, prevTail); match == len(rec.tail) {
				offset := prevOffset + uint32(len(prevTail)-match)
				ptrInput[rec.keyID] = offset
				prevTail, prevOffset = rec.tail, offset
				continue
			}
		}

		offset := uint32(len(arena))
		arena = append(arena, rec.tail...)
		arena = append(arena, 0x00)
		ptrInput[rec.keyID] = offset
		prevTail, prevOffset = rec.tail, offset
		haveShared = true
	}

	bits := bitWidth(uint32(len(arena)))
	return &SuffixStore{
		ptrs:  compactarray.New(ptrInput, bits),
		arena: arena,
	}, nil
}

// reversedLess orders tails by comparing them right-to-left, so equal
// trailing runs cluster adjacently (spec §4.H step 2).
func reversedLess(a, b []byte) bool {
	la, lb := len(a), len(b)
	for i := 1; i <= la && i <= lb; i++ {
		x, y := a[la-i], b[lb-i]
		if x != y {
			return x < y
		}
	}
	return la < lb
}

// commonSuffixLen returns how many trailing bytes a and b share.
func commonSuffixLen(a, b []byte) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}

func bitWidth(n uint32) uint32 {
	bits := uint32(1)
	for (uint32(1) << bits) < n {
		bits++
	}
	if bits > 32 {
		bits = 32
	}
	return bits
}

// Tail returns the stored tail for keyID, without the trailing
// sentinel.
func (s *SuffixStore) Tail(keyID uint32) []byte {
	off := s.ptrs.Get(keyID)
	end := off
	for s.arena[end] != 0x00 {
		end++
	}
	return s.arena[off:end]
}

// Verify compares query[level:] byte-for-byte against the stored tail
// for keyID, requiring an exact match followed by the tail's
// terminator (spec §4.H "Lookup side").
func (s *SuffixStore) Verify(keyID uint32, queryTail []byte) bool {
	return bytes.Equal(s.Tail(keyID), queryTail)
}

// ArenaLen returns the number of bytes in the shared tail arena.
func (s *SuffixStore) ArenaLen() uint32 {
	return uint32(len(s.arena))
}

// Arena returns the raw shared tail arena, sentinel bytes included,
// for debug printing.
func (s *SuffixStore) Arena() []byte {
	return s.arena
}

// Ptr returns the raw arena offset stored for keyID, for debug
// printing.
func (s *SuffixStore) Ptr(keyID uint32) uint32 {
	return s.ptrs.Get(keyID)
}

// MemSize returns the resident size estimate in bytes.
func (s *SuffixStore) MemSize() uint32 {
	return s.ptrs.MemSize() + uint32(len(s.arena))
}

// WriteTo serializes the suffix section (spec §6.4).
func (s *SuffixStore) WriteTo(w io.Writer) error {
	if err := s.ptrs.WriteTo(w); err != nil {
		return err
	}
	if err := writeU64(w, uint64(len(s.arena))); err != nil {
		return err
	}
	_, err := w.Write(s.arena)
	return err
}

// ReadFrom deserializes a suffix section written by WriteTo.
func ReadFrom(r io.Reader) (*SuffixStore, error) {
	ptrs, err := compactarray.ReadFrom(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "suffixstore: truncated pointer array")
	}
	arenaLen, err := readU64(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "suffixstore: truncated arena length")
	}
	arena := make([]byte, arenaLen)
	if _, err := io.ReadFull(r, arena); err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "suffixstore: truncated arena")
	}
	return &SuffixStore{ptrs: ptrs, arena: arena}, nil
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	_, err := w.Write(b[:])
	return err
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	var v uint64
	for i := range b {
		v |= uint64(b[i]) << (8 * i)
	}
	return v, nil
}
