package bitvector

import (
	"bytes"
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestSelect1MatchesNaiveScan(t *testing.T) {
	f := func(seed int64, n uint16) bool {
		numBits := uint32(n)%3000 + 1
		r := rand.New(rand.NewSource(seed))
		words := randomWords(r, numBits)
		sbv := NewSelect(words, numBits, DefaultBasicBlockSize, DefaultSelectSampleRate)

		bits := naiveBits(words, numBits)
		var onePositions []uint32
		for i, b := range bits {
			if b {
				onePositions = append(onePositions, uint32(i))
			}
		}
		require.Equal(t, uint32(len(onePositions)), sbv.NumOnes())
		for idx, pos := range onePositions {
			got := sbv.Select1(uint32(idx) + 1)
			if got != pos {
				t.Errorf("Select1(%d) = %d, want %d", idx+1, got, pos)
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 100}))
}

func TestSelect1PanicsOutOfRange(t *testing.T) {
	words := []uint64{0b101, 0}
	sbv := NewSelect(words, 8, DefaultBasicBlockSize, DefaultSelectSampleRate)
	require.Equal(t, uint32(2), sbv.NumOnes())
	require.Panics(t, func() { sbv.Select1(0) })
	require.Panics(t, func() { sbv.Select1(3) })
}

func TestSelectRoundTripPreservesSelect(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	numBits := uint32(8000)
	words := randomWords(r, numBits)
	sbv := NewSelect(words, numBits, DefaultBasicBlockSize, DefaultSelectSampleRate)

	var buf bytes.Buffer
	require.NoError(t, sbv.WriteTo(&buf))

	sbv2, err := SelectReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, sbv.NumOnes(), sbv2.NumOnes())

	for i := uint32(1); i <= sbv.NumOnes(); i += sbv.NumOnes()/37 + 1 {
		require.Equal(t, sbv.Select1(i), sbv2.Select1(i))
	}
}

func TestDistanceToNextSetBit(t *testing.T) {
	words := []uint64{0b0010010, 0}
	sbv := NewSelect(words, 8, DefaultBasicBlockSize, DefaultSelectSampleRate)
	require.Equal(t, uint32(0), sbv.DistanceToNextSetBit(1))
	require.Equal(t, uint32(2), sbv.DistanceToNextSetBit(2))
	require.Equal(t, uint32(0), sbv.DistanceToNextSetBit(4))
	require.Equal(t, uint32(3), sbv.DistanceToNextSetBit(5))
}
