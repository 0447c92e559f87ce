package suffixstore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// a tiny fixed locator: key i terminates at level len(key)-2 (so the
// last two bytes become its tail), giving an easy way to exercise
// sharing between tails that share a trailing run.
func fixedLocator(keys [][]byte) Locator {
	idOf := map[string]uint32{}
	for i, k := range keys {
		idOf[string(k)] = uint32(i)
	}
	return func(key []byte) (uint32, uint32, bool) {
		id, ok := idOf[string(key)]
		if !ok {
			return 0, 0, false
		}
		level := len(key) - 2
		if level < 0 {
			level = 0
		}
		return id, uint32(level), true
	}
}

func TestBuildSharesCommonTails(t *testing.T) {
	keys := [][]byte{[]byte("xabc"), []byte("zabc"), []byte("qbc")}
	store, err := Build(keys, uint32(len(keys)), fixedLocator(keys))
	require.NoError(t, err)

	require.True(t, store.Verify(0, []byte("bc")))
	require.True(t, store.Verify(1, []byte("bc")))
	require.True(t, store.Verify(2, []byte("bc")))
	require.False(t, store.Verify(0, []byte("bd")))
}

func TestEmptyTailMapsToSentinel(t *testing.T) {
	keys := [][]byte{[]byte("ab")}
	locate := func(key []byte) (uint32, uint32, bool) {
		return 0, uint32(len(key)), true // consumes everything, empty tail
	}
	store, err := Build(keys, 1, locate)
	require.NoError(t, err)
	require.True(t, store.Verify(0, []byte{}))
	require.Equal(t, []byte{}, store.Tail(0))
}

// TestBuildSharesProperSuffixRun pins the case TestBuildSharesCommonTails
// can't: tails of different lengths where the shorter is a proper
// suffix of the longer. The longer tail must be stored first so the
// shorter one can point into the middle of it, rather than each tail
// getting its own standalone copy in the arena.
func TestBuildSharesProperSuffixRun(t *testing.T) {
	keys := [][]byte{[]byte("xabc"), []byte("ybc")}
	locate := func(key []byte) (uint32, uint32, bool) {
		switch string(key) {
		case "xabc":
			return 0, 1, true // tail "abc"
		case "ybc":
			return 1, 1, true // tail "bc"
		}
		return 0, 0, false
	}
	store, err := Build(keys, uint32(len(keys)), locate)
	require.NoError(t, err)

	require.True(t, store.Verify(0, []byte("abc")))
	require.True(t, store.Verify(1, []byte("bc")))

	// "bc" shares its bytes with the tail end of "abc": the arena holds
	// one sentinel, one copy of "abc", and one trailing terminator --
	// not a second standalone copy of "bc".
	require.Equal(t, uint32(1+len("abc")+1), store.ArenaLen())
	require.Equal(t, store.Ptr(0)+1, store.Ptr(1))
}

func TestRoundTrip(t *testing.T) {
	keys := [][]byte{[]byte("ab"), []byte("abc"), []byte("abd")}
	store, err := Build(keys, uint32(len(keys)), fixedLocator(keys))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, store.WriteTo(&buf))

	store2, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, store.ArenaLen(), store2.ArenaLen())
	for id := uint32(0); id < uint32(len(keys)); id++ {
		require.Equal(t, store.Tail(id), store2.Tail(id))
	}
}
