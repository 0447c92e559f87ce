// Package fstbuilder implements component E: it consumes a sorted,
// distinct key list and emits the per-level label/hasChild/louds/
// isPrefixKey vectors that describe the trie's shape, plus the
// dense/sparse crossover level, grounded on the incremental,
// level-by-level emission style of other_examples/bobotu-myk__builder.go
// but restructured as an explicit breadth-first frontier walk so that
// every level's output is produced strictly in level order — the
// ordering the key-ID convention (spec §4.F) depends on.
//
// The builder does not assign key-IDs or suffixes; that is
// suffixstore's job, performed by re-traversing the built trie (see
// original_source/include/fst.hpp's two-pass construction).
package fstbuilder

import (
	"bytes"

	"github.com/kampersanda/fast-succinct-trie/errutil"
)

// Terminator is 0x00, the single reserved byte (spec §3/§9).
const Terminator = 0x00

// LevelShape holds one trie level's edge and node vectors.
type LevelShape struct {
	Labels      []byte
	HasChild    []bool
	Louds       []bool
	IsPrefixKey []bool // one entry per node at this level
	NumNodes    uint32
}

// Shape is the complete, level-ordered output of the builder.
type Shape struct {
	Levels           []LevelShape
	NumKeys          uint32
	SparseStartLevel uint32
}

type frontierNode struct {
	keys [][]byte // keys sharing this node's prefix, restricted to this level's depth
}

// DefaultSparseDenseRatio mirrors kSparseDenseRatio from
// original_source/include/surf/config.hpp.
const DefaultSparseDenseRatio = 64

// Options configures the dense/sparse crossover decision.
type Options struct {
	IncludeDense     bool
	SparseDenseRatio uint32
}

// DefaultOptions mirrors kIncludeDense/kSparseDenseRatio from
// original_source/include/surf/config.hpp.
var DefaultOptions = Options{IncludeDense: true, SparseDenseRatio: DefaultSparseDenseRatio}

// Build validates keys and constructs the full level-ordered trie
// shape in a single breadth-first pass. It also returns the
// deduplicated key list actually reflected in the shape, since
// adjacent duplicates are folded away and callers that re-traverse
// the built trie (e.g. to assign key-IDs) need to walk that same
// list, not their original input.
func Build(keys [][]byte, opts Options) (*Shape, [][]byte, error) {
	deduped, err := validateAndDedup(keys)
	if err != nil {
		return nil, nil, err
	}

	shape := &Shape{NumKeys: uint32(len(deduped))}
	frontier := []frontierNode{{keys: deduped}}
	nodeCounts := []uint32{}

	for level := 0; len(frontier) > 0; level++ {
		var ls LevelShape
		var next []frontierNode

		for _, node := range frontier {
			ks := node.keys
			isPrefixKey := false
			if len(ks) > 0 && len(ks[0]) == level {
				isPrefixKey = true
				ks = ks[1:]
			}
			ls.IsPrefixKey = append(ls.IsPrefixKey, isPrefixKey)

			first := true
			i := 0
			for i < len(ks) {
				c := ks[i][level]
				j := i + 1
				for j < len(ks) && ks[j][level] == c {
					j++
				}
				group := ks[i:j]

				ls.Labels = append(ls.Labels, c)
				ls.Louds = append(ls.Louds, first)
				first = false

				leaf := len(group) == 1 && len(group[0]) == level+1
				ls.HasChild = append(ls.HasChild, !leaf)
				if !leaf {
					next = append(next, frontierNode{keys: group})
				}
				i = j
			}
			ls.NumNodes++
		}

		shape.Levels = append(shape.Levels, ls)
		nodeCounts = append(nodeCounts, ls.NumNodes)
		frontier = next
	}

	shape.SparseStartLevel = chooseSparseStartLevel(nodeCounts, shape.NumKeys, opts)
	return shape, deduped, nil
}

func chooseSparseStartLevel(nodeCounts []uint32, numKeys uint32, opts Options) uint32 {
	if !opts.IncludeDense {
		return 0
	}
	ratio := opts.SparseDenseRatio
	if ratio == 0 {
		ratio = DefaultSparseDenseRatio
	}
	for level, count := range nodeCounts {
		if count*ratio >= numKeys {
			return uint32(level)
		}
	}
	return uint32(len(nodeCounts))
}

func validateAndDedup(keys [][]byte) ([][]byte, error) {
	out := make([][]byte, 0, len(keys))
	for i, k := range keys {
		if bytes.IndexByte(k, Terminator) >= 0 {
			return nil, errutil.Wrap(errutil.ErrInvalidInput, "key contains reserved 0x00 byte")
		}
		if i > 0 && bytes.Compare(keys[i-1], k) > 0 {
			return nil, errutil.Wrap(errutil.ErrInvalidInput, "keys not sorted ascending")
		}
		if i > 0 && bytes.Equal(keys[i-1], k) {
			continue // invariant 1: skip adjacent duplicate
		}
		out = append(out, k)
	}
	return out, nil
}
