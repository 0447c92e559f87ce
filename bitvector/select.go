package bitvector

import (
	"fmt"
	"io"
	"math/bits"
)

// DefaultSelectSampleRate is the select sampling rate S used unless a
// builder overrides it (spec §4.B: "typically 64").
const DefaultSelectSampleRate = 64

// SelectBitvector is a Bitvector specialization adding a sampled
// 1-bit index so select1 also runs in O(1) amortized time, grounded
// on the same block/sample technique as the dense BitvectorRank but
// extended with select sampling the way the original SuRF rank.hpp's
// companion select structure does.
type SelectBitvector struct {
	Bitvector
	sampleRate uint32
	samples    []uint32 // samples[k] = position of the (k*sampleRate+1)-th set bit
	numOnes    uint32
}

// SelectFromLevels concatenates levels the same way FromLevels does
// and additionally builds the select sample index.
func SelectFromLevels(levels [][]uint64, numBitsPerLevel []uint32, basicBlockSize, sampleRate uint32) *SelectBitvector {
	bv := FromLevels(levels, numBitsPerLevel, basicBlockSize)
	return newSelectBitvector(bv, sampleRate)
}

// NewSelect wraps an already-packed bit array with a select index.
func NewSelect(words []uint64, numBits, basicBlockSize, sampleRate uint32) *SelectBitvector {
	bv := New(words, numBits, basicBlockSize)
	return newSelectBitvector(bv, sampleRate)
}

func newSelectBitvector(bv *Bitvector, sampleRate uint32) *SelectBitvector {
	sbv := &SelectBitvector{Bitvector: *bv, sampleRate: sampleRate}
	sbv.buildSamples()
	return sbv
}

func (sbv *SelectBitvector) buildSamples() {
	var ones uint32
	for pos := uint32(0); pos < sbv.numBits; pos++ {
		if sbv.IsSet(pos) {
			if ones%sbv.sampleRate == 0 {
				sbv.samples = append(sbv.samples, pos)
			}
			ones++
		}
	}
	sbv.numOnes = ones
}

// MemSize returns the resident size estimate in bytes, including the
// select sample index.
func (sbv *SelectBitvector) MemSize() uint32 {
	return sbv.Bitvector.MemSize() + uint32(len(sbv.samples))*4
}

// NumOnes returns the total number of set bits.
func (sbv *SelectBitvector) NumOnes() uint32 {
	return sbv.numOnes
}

// Select1 returns the zero-based position of the i-th (one-origin)
// set bit (spec §4.B).
func (sbv *SelectBitvector) Select1(i uint32) uint32 {
	if i == 0 || i > sbv.numOnes {
		panic(fmt.Sprintf("bitvector: select1(%d) out of range [1,%d]", i, sbv.numOnes))
	}
	k := (i - 1) / sbv.sampleRate
	startPos := sbv.samples[k]
	need := i - k*sbv.sampleRate
	if need == 1 {
		return startPos
	}
	remaining := need - 1

	wordsPerWord := uint32(wordSize)
	wordIdx := (startPos + 1) / wordsPerWord
	bitOffset := (startPos + 1) % wordsPerWord

	for {
		word := sbv.words[wordIdx]
		if bitOffset != 0 {
			word &^= (uint64(1) << bitOffset) - 1
		}
		c := uint32(bits.OnesCount64(word))
		if c >= remaining {
			pos := selectInWord(word, remaining)
			return wordIdx*wordsPerWord + pos
		}
		remaining -= c
		wordIdx++
		bitOffset = 0
	}
}

// selectInWord returns the position (0-63) of the k-th (one-origin)
// set bit within word. word must contain at least k set bits.
func selectInWord(word uint64, k uint32) uint32 {
	for i := uint32(0); i < wordSize; i++ {
		if word&(uint64(1)<<i) != 0 {
			k--
			if k == 0 {
				return i
			}
		}
	}
	panic("bitvector: selectInWord called with k exceeding popcount(word)")
}

// WriteTo serializes the underlying bits; the select sample index is
// recomputed on load, same as the rank LUT.
func (sbv *SelectBitvector) WriteTo(w io.Writer) error {
	if err := writeU32(w, sbv.sampleRate); err != nil {
		return err
	}
	return sbv.Bitvector.WriteTo(w)
}

// SelectReadFrom deserializes a vector written by WriteTo and rebuilds
// both its rank LUT and select samples.
func SelectReadFrom(r io.Reader) (*SelectBitvector, error) {
	sampleRate, err := readU32(r)
	if err != nil {
		return nil, err
	}
	bv, err := ReadFrom(r)
	if err != nil {
		return nil, err
	}
	return newSelectBitvector(bv, sampleRate), nil
}

// DistanceToNextSetBit returns the smallest d >= 0 such that
// IsSet(pos+d), scanning forward from pos (pos itself included), or
// NumBits()-pos when no bit at or after pos is set.
func (sbv *SelectBitvector) DistanceToNextSetBit(pos uint32) uint32 {
	for d := uint32(0); pos+d < sbv.numBits; d++ {
		if sbv.IsSet(pos + d) {
			return d
		}
	}
	return sbv.numBits - pos
}
