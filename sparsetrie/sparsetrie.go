// Package sparsetrie implements component G: the lower, variable-
// fanout LOUDS levels of the trie, grounded on the node-stepping
// algorithm of other_examples/bobotu-myk__louds_sparse.go (firstLabelPos/
// childNodeID/nodeSize) and spec §4.G, rebuilt atop this module's
// shared bitvector/labelvector packages instead of that file's
// bespoke rankVectorSparse/selectVector types.
package sparsetrie

import (
	"io"

	"github.com/kampersanda/fast-succinct-trie/bitvector"
	"github.com/kampersanda/fast-succinct-trie/errutil"
	"github.com/kampersanda/fast-succinct-trie/fstbuilder"
	"github.com/kampersanda/fast-succinct-trie/labelvector"
)

// Outcome describes what SparseTrie.Find discovered.
type Outcome int

const (
	// NotFound means the query byte string cannot match any key.
	NotFound Outcome = iota
	// Terminated means a key terminates here; KeyID is valid.
	Terminated
)

// Result is the outcome of a sparse-tier traversal.
type Result struct {
	Outcome Outcome
	KeyID   uint32
	Level   uint32 // bytes of the query consumed up to and including the match
}

// SparseTrie holds the concatenated sparse-tier label/hasChild/louds
// arrays.
type SparseTrie struct {
	labels   *labelvector.LabelVector
	hasChild *bitvector.Bitvector
	louds    *bitvector.SelectBitvector

	denseTerminators uint32
}

// Build constructs the sparse tier from the builder's per-level shape
// for levels [sparseStartLevel, height), plus the number of keys that
// already terminated in the dense tier (the additive key-ID base).
//
// A node whose own path is itself a key (LevelShape.IsPrefixKey) gets
// a synthetic leading edge labeled fstbuilder.Terminator with
// HasChild false, the reserved-label pseudo-edge upstream SuRF uses
// for the same purpose (original_source/include/surf/config.hpp's
// kTerminator == 0, the same byte this module already reserves out of
// real keys). Terminator sorts before every real label, so the
// pseudo-edge is always the node's first edge and every real edge
// that follows shifts to a non-node-leading LOUDS bit.
func Build(levels []fstbuilder.LevelShape, denseTerminators uint32, basicBlockSize, selectSampleRate uint32) *SparseTrie {
	var labelBytes []byte
	var hasChildWordLevels, loudsWordLevels [][]uint64
	var hasChildBits, loudsBits []uint32

	for _, ls := range levels {
		levelLabels, levelHasChild, levelLouds := withPrefixKeyEdges(ls)
		labelBytes = append(labelBytes, levelLabels...)

		n := uint32(len(levelLabels))
		hw := make([]uint64, n/64+1)
		lw := make([]uint64, n/64+1)
		for i := uint32(0); i < n; i++ {
			if levelHasChild[i] {
				hw[i/64] |= uint64(1) << (i % 64)
			}
			if levelLouds[i] {
				lw[i/64] |= uint64(1) << (i % 64)
			}
		}
		hasChildWordLevels = append(hasChildWordLevels, hw)
		loudsWordLevels = append(loudsWordLevels, lw)
		hasChildBits = append(hasChildBits, n)
		loudsBits = append(loudsBits, n)
	}

	return &SparseTrie{
		labels:           labelvector.New(labelBytes),
		hasChild:         bitvector.FromLevels(hasChildWordLevels, hasChildBits, basicBlockSize),
		louds:            bitvector.SelectFromLevels(loudsWordLevels, loudsBits, basicBlockSize, selectSampleRate),
		denseTerminators: denseTerminators,
	}
}

// withPrefixKeyEdges re-emits a level's edges, inserting a
// fstbuilder.Terminator pseudo-edge ahead of every node marked
// IsPrefixKey. A non-root node only reaches the builder's next
// frontier (and so only appears here) when at least one key continues
// past it, so such a node still has a real edge of its own right after
// the pseudo-edge. The root of the key set {""} is the one edgeless
// IsPrefixKey node; it gets the pseudo-edge alone.
func withPrefixKeyEdges(ls fstbuilder.LevelShape) (labels []byte, hasChild, louds []bool) {
	if len(ls.Labels) == 0 && len(ls.IsPrefixKey) > 0 && ls.IsPrefixKey[0] {
		return []byte{fstbuilder.Terminator}, []bool{false}, []bool{true}
	}
	nodeIdx := -1
	for i, c := range ls.Labels {
		if ls.Louds[i] {
			nodeIdx++
			if ls.IsPrefixKey[nodeIdx] {
				labels = append(labels, fstbuilder.Terminator)
				hasChild = append(hasChild, false)
				louds = append(louds, true)
				labels = append(labels, c)
				hasChild = append(hasChild, ls.HasChild[i])
				louds = append(louds, false)
				continue
			}
		}
		labels = append(labels, c)
		hasChild = append(hasChild, ls.HasChild[i])
		louds = append(louds, ls.Louds[i])
	}
	return
}

// nodeBounds returns the first edge position of node s and the
// number of edges it has.
func (st *SparseTrie) nodeBounds(s uint32) (first, size uint32) {
	first = st.louds.Select1(s + 1)
	if s+2 <= st.louds.NumOnes() {
		return first, st.louds.Select1(s+2) - first
	}
	return first, st.labels.NumLabels() - first
}

// Find walks the sparse tier starting at node s, having already
// consumed level bytes of key (spec §4.G). If the query exhausts at a
// node, the node's own key-ness is decided by whether its leading
// edge is the reserved Terminator pseudo-edge (see Build), exactly
// the check original_source/include/fst.hpp's traverse performs via
// kTerminator before falling back to NotFound.
func (st *SparseTrie) Find(s uint32, level uint32, key []byte) Result {
	// firstLevelNodes is the number of nodes on this tier's first level:
	// every other sparse node is the child of exactly one hasChild edge.
	var firstLevelNodes uint32
	if n := st.hasChild.NumBits(); n > 0 {
		firstLevelNodes = st.louds.NumOnes() - st.hasChild.Rank1(n-1)
	}
	for {
		if s >= st.louds.NumOnes() {
			// No such node: only reachable when the trie holds zero
			// keys, since every real traversal step lands on a node
			// the builder actually emitted.
			return Result{Outcome: NotFound}
		}
		first, size := st.nodeBounds(s)
		errutil.BugOn(size == 0, "sparsetrie: node %d has no edges", s)
		if level == uint32(len(key)) {
			if st.labels.Label(first) == fstbuilder.Terminator {
				return Result{Outcome: Terminated, KeyID: st.denseTerminators + rank0(st.hasChild, first) - 1, Level: level}
			}
			return Result{Outcome: NotFound}
		}
		if key[level] == fstbuilder.Terminator {
			// The reserved byte only ever labels a pseudo-edge, never a
			// real key byte.
			return Result{Outcome: NotFound}
		}
		pos, ok := st.labels.Search(key[level], first, size)
		if !ok {
			return Result{Outcome: NotFound}
		}
		if !st.hasChild.IsSet(pos) {
			return Result{Outcome: Terminated, KeyID: st.denseTerminators + rank0(st.hasChild, pos) - 1, Level: level + 1}
		}
		// Children are numbered after the first level's nodes, in the
		// order of their hasChild bits: the one-origin rank plus a
		// constant offset of firstLevelNodes-1, the same rank + constant
		// offset shape as loudsSparse.childNodeID in
		// other_examples/bobotu-myk__louds_sparse.go. In an all-sparse
		// trie the first level is the root alone and the offset is 0.
		s = st.hasChild.Rank1(pos) + firstLevelNodes - 1
		errutil.BugOn(s >= st.louds.NumOnes(), "sparsetrie: child node id %d out of range [0,%d)", s, st.louds.NumOnes())
		level++
	}
}

// rank0 returns the count of 0-bits in bv[0..=pos].
func rank0(bv *bitvector.Bitvector, pos uint32) uint32 {
	return (pos + 1) - bv.Rank1(pos)
}

// NumNodes returns the number of sparse-tier nodes (LOUDS "10" groups).
func (st *SparseTrie) NumNodes() uint32 {
	return st.louds.NumOnes()
}

// NumEdges returns the number of sparse-tier edges (label positions).
func (st *SparseTrie) NumEdges() uint32 {
	return st.labels.NumLabels()
}

// MemSize returns the resident size estimate in bytes.
func (st *SparseTrie) MemSize() uint32 {
	return st.labels.MemSize() + st.hasChild.MemSize() + st.louds.MemSize()
}

// WriteTo serializes the sparse tier.
func (st *SparseTrie) WriteTo(w io.Writer) error {
	if err := writeU32(w, st.denseTerminators); err != nil {
		return err
	}
	if err := st.labels.WriteTo(w); err != nil {
		return err
	}
	if err := st.hasChild.WriteTo(w); err != nil {
		return err
	}
	return st.louds.WriteTo(w)
}

// ReadFrom deserializes a sparse tier written by WriteTo.
func ReadFrom(r io.Reader) (*SparseTrie, error) {
	denseTerminators, err := readU32(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "sparsetrie: truncated dense terminator count")
	}
	labels, err := labelvector.ReadFrom(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "sparsetrie: truncated labels")
	}
	hasChild, err := bitvector.ReadFrom(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "sparsetrie: truncated hasChild bitmap")
	}
	louds, err := bitvector.SelectReadFrom(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "sparsetrie: truncated louds bitmap")
	}
	return &SparseTrie{labels: labels, hasChild: hasChild, louds: louds, denseTerminators: denseTerminators}, nil
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	_, err := w.Write(b[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}
