package compactarray

import (
	"bytes"
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestGetMatchesInput(t *testing.T) {
	f := func(seed int64, n uint8, bitsSeed uint8) bool {
		bits := uint32(bitsSeed)%32 + 1
		count := int(n)%200 + 1
		r := rand.New(rand.NewSource(seed))

		mask := (uint32(1) << bits) - 1
		input := make([]uint32, count)
		for i := range input {
			input[i] = r.Uint32() & mask
		}

		ca := New(input, bits)
		require.Equal(t, uint32(count), ca.Size())
		for i, want := range input {
			if ca.Get(uint32(i)) != want {
				t.Errorf("Get(%d) = %d, want %d (bits=%d)", i, ca.Get(uint32(i)), want, bits)
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 300}))
}

func TestRoundTrip(t *testing.T) {
	input := []uint32{0, 1, 2, 5, 17, 31, 9, 3}
	ca := New(input, 5)

	var buf bytes.Buffer
	require.NoError(t, ca.WriteTo(&buf))

	ca2, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, ca.Size(), ca2.Size())
	require.Equal(t, ca.Bits(), ca2.Bits())
	for i := uint32(0); i < ca.Size(); i++ {
		require.Equal(t, ca.Get(i), ca2.Get(i))
	}
}

func TestSpansTwoWords(t *testing.T) {
	// bits=21 forces some entries to straddle a 32-bit chunk boundary.
	input := []uint32{0x1FFFFF, 0, 0x1FFFFF, 0x0AAAAA, 0x155555}
	ca := New(input, 21)
	for i, want := range input {
		require.Equal(t, want, ca.Get(uint32(i)))
	}
}
