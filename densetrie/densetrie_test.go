package densetrie

import (
	"bytes"
	"testing"

	"github.com/kampersanda/fast-succinct-trie/bitvector"
	"github.com/kampersanda/fast-succinct-trie/fstbuilder"
	"github.com/stretchr/testify/require"
)

func buildAllDenseShape(t *testing.T, keys []string) *fstbuilder.Shape {
	t.Helper()
	ks := make([][]byte, len(keys))
	for i, k := range keys {
		ks[i] = []byte(k)
	}
	// ratio 1 keeps every level's node count below numKeys for the key
	// sets used here, so the whole trie stays dense and multi-level
	// child traversal is actually exercised.
	shape, _, err := fstbuilder.Build(ks, fstbuilder.Options{IncludeDense: true, SparseDenseRatio: 1})
	require.NoError(t, err)
	require.Equal(t, uint32(len(shape.Levels)), shape.SparseStartLevel, "expected a fully dense shape")
	return shape
}

func TestFindTwoLeafEdgesAtRoot(t *testing.T) {
	shape := buildAllDenseShape(t, []string{"A", "B"})
	dt := Build(shape.Levels, shape.SparseStartLevel, bitvector.DefaultBasicBlockSize)

	idA := dt.Find([]byte("A"))
	idB := dt.Find([]byte("B"))
	require.Equal(t, Terminated, idA.Outcome)
	require.Equal(t, Terminated, idB.Outcome)
	require.NotEqual(t, idA.KeyID, idB.KeyID)
	require.ElementsMatch(t, []uint32{0, 1}, []uint32{idA.KeyID, idB.KeyID})

	require.Equal(t, NotFound, dt.Find([]byte("C")).Outcome)
	require.Equal(t, NotFound, dt.Find([]byte("")).Outcome)
}

// TestFindThreeLevelDenseBranching exercises child traversal across
// three dense levels, the path the dense->dense node-ID fix (childOrdinal
// is the child's node ID directly, no further rebasing) is needed for.
func TestFindThreeLevelDenseBranching(t *testing.T) {
	keys := []string{"aaa", "aab", "aba", "abb", "baa", "bab", "bba", "bbb"}
	shape := buildAllDenseShape(t, keys)
	dt := Build(shape.Levels, shape.SparseStartLevel, bitvector.DefaultBasicBlockSize)

	seen := make(map[uint32]bool, len(keys))
	for _, k := range keys {
		res := dt.Find([]byte(k))
		require.Equal(t, Terminated, res.Outcome, "key %q", k)
		require.Less(t, res.KeyID, uint32(len(keys)))
		require.False(t, seen[res.KeyID], "key ID %d reused by %q", res.KeyID, k)
		seen[res.KeyID] = true
	}
	require.Len(t, seen, len(keys))

	for _, probe := range []string{"aac", "abc", "ccc", "aa"} {
		require.Equal(t, NotFound, dt.Find([]byte(probe)).Outcome, "probe %q", probe)
	}

	// A query that overshoots past a leaf edge (e.g. "aaaa" past "aaa")
	// structurally lands on that edge's termination just like the real
	// key would; this layer doesn't check the query length against it,
	// mirroring original_source/include/fst.hpp's traverse(), which
	// likewise returns a provisional (key_id, level) pair and leaves
	// the caller (there exactSearch, here fst.Trie.ExactSearch) to
	// reject leftover bytes against the stored suffix.
	overshoot := dt.Find([]byte("aaaa"))
	require.Equal(t, Terminated, overshoot.Outcome)
	require.Equal(t, uint32(3), overshoot.Level)
}

func TestFindPrefixKeyTerminatesAtInteriorNode(t *testing.T) {
	shape := buildAllDenseShape(t, []string{"x", "xy"})
	dt := Build(shape.Levels, shape.SparseStartLevel, bitvector.DefaultBasicBlockSize)

	x := dt.Find([]byte("x"))
	xy := dt.Find([]byte("xy"))
	require.Equal(t, Terminated, x.Outcome)
	require.Equal(t, Terminated, xy.Outcome)
	require.NotEqual(t, x.KeyID, xy.KeyID)
	require.Equal(t, uint32(1), x.Level)
	require.Equal(t, uint32(2), xy.Level)
}

func TestRoundTrip(t *testing.T) {
	keys := []string{"aaa", "aab", "aba", "abb", "baa", "bab", "bba", "bbb"}
	shape := buildAllDenseShape(t, keys)
	dt := Build(shape.Levels, shape.SparseStartLevel, bitvector.DefaultBasicBlockSize)

	var buf bytes.Buffer
	require.NoError(t, dt.WriteTo(&buf))
	dt2, err := ReadFrom(&buf)
	require.NoError(t, err)

	for _, k := range keys {
		require.Equal(t, dt.Find([]byte(k)), dt2.Find([]byte(k)))
	}
	require.Equal(t, dt.TotalNodes(), dt2.TotalNodes())
	require.Equal(t, dt.TotalTerminators(), dt2.TotalTerminators())
}
