package bitvector

import (
	"bytes"
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func naiveBits(words []uint64, numBits uint32) []bool {
	out := make([]bool, numBits)
	for i := uint32(0); i < numBits; i++ {
		out[i] = readBit(words, i)
	}
	return out
}

func randomWords(r *rand.Rand, numBits uint32) []uint64 {
	n := (numBits + wordSize - 1) / wordSize
	words := make([]uint64, n+1)
	for i := range words {
		words[i] = r.Uint64()
	}
	return words
}

func TestRank1MatchesNaiveCount(t *testing.T) {
	f := func(seed int64, n uint16) bool {
		numBits := uint32(n)%2000 + 1
		r := rand.New(rand.NewSource(seed))
		words := randomWords(r, numBits)
		bv := New(words, numBits, DefaultBasicBlockSize)

		bits := naiveBits(words, numBits)
		var want uint32
		for i := uint32(0); i < numBits; i++ {
			if bits[i] {
				want++
			}
			if bv.Rank1(i) != want {
				t.Errorf("Rank1(%d) = %d, want %d", i, bv.Rank1(i), want)
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 200}))
}

func TestFromLevelsConcatenatesBitExactly(t *testing.T) {
	level0 := []uint64{0b1011}
	level1 := []uint64{0b10} // 5 bits: only the 5-bit prefix is valid
	bv := FromLevels([][]uint64{level0, level1}, []uint32{4, 5}, DefaultBasicBlockSize)

	require.Equal(t, uint32(9), bv.NumBits())
	want := []bool{true, true, false, true, false, true, false, false, false}
	for i, w := range want {
		require.Equalf(t, w, bv.IsSet(uint32(i)), "bit %d", i)
	}
}

func TestRoundTripPreservesRank(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	numBits := uint32(10000)
	words := randomWords(r, numBits)
	bv := New(words, numBits, DefaultBasicBlockSize)

	var buf bytes.Buffer
	require.NoError(t, bv.WriteTo(&buf))

	bv2, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, bv.NumBits(), bv2.NumBits())

	for _, pos := range []uint32{0, 1, 511, 512, 513, numBits - 1} {
		require.Equal(t, bv.Rank1(pos), bv2.Rank1(pos))
	}
}
