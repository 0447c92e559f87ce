// Package bitvector implements the level-concatenated bit storage and
// constant-time rank operation shared by the dense and sparse trie
// tiers (component A of the design), grounded directly on the
// block-lookup-table algorithm of the original SuRF
// surf::BitvectorRank (see original_source/include/surf/rank.hpp).
package bitvector

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
)

const wordSize = 64

// DefaultBasicBlockSize is the rank basic-block size B used unless a
// builder overrides it. It must be a power of two, per spec §4.A.
const DefaultBasicBlockSize = 512

// Bitvector is a concatenation of per-level bit arrays stored as
// 64-bit words, with a precomputed rank lookup table over basic
// blocks of size BasicBlockSize.
type Bitvector struct {
	words          []uint64
	numBits        uint32
	basicBlockSize uint32
	rankLUT        []uint32
}

// FromLevels concatenates the bit-level contents of levels (each
// levels[i] holding numBitsPerLevel[i] valid bits, word-padded) into a
// single flat Bitvector and builds its rank lookup table.
func FromLevels(levels [][]uint64, numBitsPerLevel []uint32, basicBlockSize uint32) *Bitvector {
	var total uint32
	for _, n := range numBitsPerLevel {
		total += n
	}

	bv := &Bitvector{
		basicBlockSize: basicBlockSize,
		words:          make([]uint64, (total+wordSize-1)/wordSize+1),
	}

	var pos uint32
	for i, level := range levels {
		n := numBitsPerLevel[i]
		for b := uint32(0); b < n; b++ {
			if readBit(level, b) {
				setBit(bv.words, pos)
			}
			pos++
		}
	}
	bv.numBits = total
	bv.initRankLUT()
	return bv
}

// New wraps a single already-packed bit array of numBits valid bits.
func New(words []uint64, numBits uint32, basicBlockSize uint32) *Bitvector {
	bv := &Bitvector{words: words, numBits: numBits, basicBlockSize: basicBlockSize}
	bv.initRankLUT()
	return bv
}

func readBit(words []uint64, i uint32) bool {
	return (words[i/wordSize]>>(i%wordSize))&1 != 0
}

func setBit(words []uint64, i uint32) {
	words[i/wordSize] |= uint64(1) << (i % wordSize)
}

// IsSet reports whether bit pos is set.
func (bv *Bitvector) IsSet(pos uint32) bool {
	return readBit(bv.words, pos)
}

// NumBits returns the total number of valid bits in the vector.
func (bv *Bitvector) NumBits() uint32 {
	return bv.numBits
}

func (bv *Bitvector) initRankLUT() {
	wordsPerBlock := bv.basicBlockSize / wordSize
	numBlocks := bv.numBits/bv.basicBlockSize + 1
	bv.rankLUT = make([]uint32, numBlocks)

	var cumulative uint32
	for i := uint32(0); i < numBlocks-1; i++ {
		bv.rankLUT[i] = cumulative
		cumulative += popcountRange(bv.words, i*wordsPerBlock, bv.basicBlockSize)
	}
	bv.rankLUT[numBlocks-1] = cumulative
}

// popcountRange counts set bits among numBits bits starting at word
// index startWord, i.e. bits [startWord*64, startWord*64+numBits).
func popcountRange(words []uint64, startWord, numBits uint32) uint32 {
	var count uint32
	fullWords := numBits / wordSize
	for w := uint32(0); w < fullWords; w++ {
		count += uint32(bits.OnesCount64(words[startWord+w]))
	}
	rem := numBits % wordSize
	if rem != 0 {
		mask := (uint64(1) << rem) - 1
		count += uint32(bits.OnesCount64(words[startWord+fullWords] & mask))
	}
	return count
}

// Rank1 returns the count of 1-bits in bits[0..=pos] (spec §4.A): a
// one-origin count over a zero-origin, inclusive position.
func (bv *Bitvector) Rank1(pos uint32) uint32 {
	if pos >= bv.numBits {
		panic(fmt.Sprintf("bitvector: rank1(%d) out of range [0,%d)", pos, bv.numBits))
	}
	wordsPerBlock := bv.basicBlockSize / wordSize
	blockID := pos / bv.basicBlockSize
	offset := pos % bv.basicBlockSize
	return bv.rankLUT[blockID] + popcountRange(bv.words, blockID*wordsPerBlock, offset+1)
}

// Rank1Before returns Rank1(pos-1), or 0 when pos is 0, i.e. the count
// of 1-bits strictly before pos. Convenience for callers that need an
// exclusive count at a boundary (densetrie's prefixKeyID).
func (bv *Bitvector) Rank1Before(pos uint32) uint32 {
	if pos == 0 {
		return 0
	}
	return bv.Rank1(pos - 1)
}

// MemSize returns the resident size estimate in bytes.
func (bv *Bitvector) MemSize() uint32 {
	return uint32(len(bv.words))*8 + uint32(len(bv.rankLUT))*4
}

// WriteTo serializes the vector: numBits, basicBlockSize, the word
// count, and the word array. The rank LUT is not written; ReadFrom
// recomputes it from the restored bits.
func (bv *Bitvector) WriteTo(w io.Writer) error {
	if err := writeU32(w, bv.numBits); err != nil {
		return err
	}
	if err := writeU32(w, bv.basicBlockSize); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(bv.words))); err != nil {
		return err
	}
	for _, word := range bv.words {
		if err := writeU64(w, word); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrom deserializes a vector written by WriteTo and rebuilds its
// rank LUT from the restored bits.
func ReadFrom(r io.Reader) (*Bitvector, error) {
	numBits, err := readU32(r)
	if err != nil {
		return nil, err
	}
	basicBlockSize, err := readU32(r)
	if err != nil {
		return nil, err
	}
	numWords, err := readU32(r)
	if err != nil {
		return nil, err
	}
	words := make([]uint64, numWords)
	for i := range words {
		v, err := readU64(r)
		if err != nil {
			return nil, err
		}
		words[i] = v
	}
	return New(words, numBits, basicBlockSize), nil
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
