// Package densetrie implements component F: the upper, 256-bit-per-
// node bitmap levels of the trie. Grounded on
// original_source/include/fst.hpp's LoudsDense member and on the
// dense-tier walk described in spec §4.F, but built around
// bitvector.Bitvector's rank rather than a bespoke rank table, the
// same way this module's other tiers reuse the shared bitvector
// package instead of hand-rolling per-component rank code.
package densetrie

import (
	"io"

	"github.com/kampersanda/fast-succinct-trie/bitvector"
	"github.com/kampersanda/fast-succinct-trie/errutil"
	"github.com/kampersanda/fast-succinct-trie/fstbuilder"
)

const fanout = 256

// Outcome describes what DenseTrie.Find discovered.
type Outcome int

const (
	// NotFound means the query byte string cannot match any key.
	NotFound Outcome = iota
	// Terminated means a key terminates here; KeyID and Level are valid.
	Terminated
	// Continue means the query must keep going in the sparse tier at
	// SparseNode, having consumed Level bytes so far.
	Continue
)

// Result is the outcome of a dense-tier traversal.
type Result struct {
	Outcome    Outcome
	KeyID      uint32
	Level      uint32
	SparseNode uint32
}

// DenseTrie holds the concatenated dense-tier bitmaps.
type DenseTrie struct {
	labels      *bitvector.Bitvector
	hasChild    *bitvector.Bitvector
	termEdges   *bitvector.Bitvector
	isPrefixKey *bitvector.Bitvector

	sparseStartLevel uint32
	totalNodes       uint32
	totalTerminators uint32
}

// Build constructs the dense tier from the builder's per-level shape
// for levels [0, sparseStartLevel).
func Build(levels []fstbuilder.LevelShape, sparseStartLevel uint32, basicBlockSize uint32) *DenseTrie {
	denseLevels := levels[:sparseStartLevel]

	var labelWordLevels, hasChildWordLevels, termWordLevels, prefixWordLevels [][]uint64
	var labelBits, hasChildBits, termBits, prefixBits []uint32

	var totalNodes uint32
	for _, ls := range denseLevels {
		lw, hw, tw, pw := packDenseLevel(ls)
		labelWordLevels = append(labelWordLevels, lw)
		hasChildWordLevels = append(hasChildWordLevels, hw)
		termWordLevels = append(termWordLevels, tw)
		prefixWordLevels = append(prefixWordLevels, pw)

		labelBits = append(labelBits, ls.NumNodes*fanout)
		hasChildBits = append(hasChildBits, ls.NumNodes*fanout)
		termBits = append(termBits, ls.NumNodes*fanout)
		prefixBits = append(prefixBits, ls.NumNodes)
		totalNodes += ls.NumNodes
	}

	dt := &DenseTrie{
		labels:           bitvector.FromLevels(labelWordLevels, labelBits, basicBlockSize),
		hasChild:         bitvector.FromLevels(hasChildWordLevels, hasChildBits, basicBlockSize),
		termEdges:        bitvector.FromLevels(termWordLevels, termBits, basicBlockSize),
		isPrefixKey:      bitvector.FromLevels(prefixWordLevels, prefixBits, basicBlockSize),
		sparseStartLevel: sparseStartLevel,
		totalNodes:       totalNodes,
	}
	if totalNodes > 0 {
		dt.totalTerminators = dt.isPrefixKey.Rank1(totalNodes-1) + dt.termEdges.Rank1(totalNodes*fanout-1)
	}
	return dt
}

func packDenseLevel(ls fstbuilder.LevelShape) (labelWords, hasChildWords, termWords, prefixWords []uint64) {
	numEdgeBits := ls.NumNodes * fanout
	labelWords = make([]uint64, numEdgeBits/64+1)
	hasChildWords = make([]uint64, numEdgeBits/64+1)
	termWords = make([]uint64, numEdgeBits/64+1)
	prefixWords = make([]uint64, uint32(len(ls.IsPrefixKey))/64+1)

	node := -1
	for i, c := range ls.Labels {
		if ls.Louds[i] {
			node++
		}
		bitpos := uint32(node)*fanout + uint32(c)
		setWordBit(labelWords, bitpos)
		if ls.HasChild[i] {
			setWordBit(hasChildWords, bitpos)
		} else {
			setWordBit(termWords, bitpos)
		}
	}
	for n, isPrefix := range ls.IsPrefixKey {
		if isPrefix {
			setWordBit(prefixWords, uint32(n))
		}
	}
	return
}

func setWordBit(words []uint64, pos uint32) {
	words[pos/64] |= uint64(1) << (pos % 64)
}

// TotalNodes returns the number of dense nodes across all dense levels.
func (dt *DenseTrie) TotalNodes() uint32 {
	return dt.totalNodes
}

// TotalTerminators returns the number of keys that terminate inside
// the dense tier (prefix-key nodes plus leaf edges).
func (dt *DenseTrie) TotalTerminators() uint32 {
	return dt.totalTerminators
}

// Find walks the dense tier from the root, following spec §4.F.
func (dt *DenseTrie) Find(key []byte) Result {
	var d uint32
	for level := uint32(0); level < dt.sparseStartLevel; level++ {
		if level == uint32(len(key)) {
			if dt.isPrefixKey.IsSet(d) {
				return Result{Outcome: Terminated, KeyID: dt.prefixKeyID(d), Level: level}
			}
			return Result{Outcome: NotFound}
		}
		c := key[level]
		bit := d*fanout + uint32(c)
		if !dt.labels.IsSet(bit) {
			return Result{Outcome: NotFound}
		}
		if !dt.hasChild.IsSet(bit) {
			return Result{Outcome: Terminated, KeyID: dt.edgeKeyID(d, bit), Level: level + 1}
		}

		// childOrdinal is the child's global node ID: dense nodes are
		// numbered in the same left-to-right, level-by-level order the
		// hasChild bits are laid out in, with node 0 the root, so a
		// rank up to and including this hasChild bit already yields
		// that ID directly (spec §4.F; grounded on loudsDense.childNodeID
		// in other_examples/bobotu-myk__louds_dense.go, which computes
		// it the same way with no further adjustment).
		childOrdinal := dt.hasChild.Rank1(bit)
		if level == dt.sparseStartLevel-1 {
			errutil.BugOn(childOrdinal < dt.totalNodes, "densetrie: handoff child ordinal %d not past dense region (%d nodes)", childOrdinal, dt.totalNodes)
			return Result{Outcome: Continue, Level: level + 1, SparseNode: childOrdinal - dt.totalNodes}
		}
		errutil.BugOn(childOrdinal >= dt.totalNodes, "densetrie: child node id %d out of range [0,%d)", childOrdinal, dt.totalNodes)
		d = childOrdinal
	}
	return Result{Outcome: NotFound}
}

// prefixKeyID computes the key-ID of the isPrefixKey terminator at
// node d: the count of prefix-key terminators up to and including d,
// plus the count of edge terminators strictly before node d's 256-bit
// region (so a node's own prefix-key precedes its own edges, see
// DESIGN.md's resolved key-ID ordering).
func (dt *DenseTrie) prefixKeyID(d uint32) uint32 {
	errutil.BugOn(d >= dt.totalNodes, "densetrie: prefixKeyID node %d out of range [0,%d)", d, dt.totalNodes)
	edgesBeforeNode := uint32(0)
	if d > 0 {
		edgesBeforeNode = dt.termEdges.Rank1Before(d * fanout)
	}
	id := dt.isPrefixKey.Rank1(d) - 1 + edgesBeforeNode
	errutil.BugOn(id >= dt.totalTerminators, "densetrie: prefixKeyID computed %d out of range [0,%d)", id, dt.totalTerminators)
	return id
}

// edgeKeyID computes the key-ID of the hasChild=0 edge-termination
// at global bit position bit belonging to node d.
func (dt *DenseTrie) edgeKeyID(d uint32, bit uint32) uint32 {
	errutil.BugOn(d >= dt.totalNodes, "densetrie: edgeKeyID node %d out of range [0,%d)", d, dt.totalNodes)
	id := dt.isPrefixKey.Rank1(d) + dt.termEdges.Rank1(bit) - 1
	errutil.BugOn(id >= dt.totalTerminators, "densetrie: edgeKeyID computed %d out of range [0,%d)", id, dt.totalTerminators)
	return id
}

// MemSize returns the resident size estimate in bytes.
func (dt *DenseTrie) MemSize() uint32 {
	return dt.labels.MemSize() + dt.hasChild.MemSize() + dt.termEdges.MemSize() + dt.isPrefixKey.MemSize()
}

// WriteTo serializes the dense tier: sparseStartLevel, totalNodes,
// then the labels/hasChild/isPrefixKey bit arrays (rank LUTs are
// recomputed on load, per spec §6).
func (dt *DenseTrie) WriteTo(w io.Writer) error {
	if err := writeU32(w, dt.sparseStartLevel); err != nil {
		return err
	}
	if err := writeU32(w, dt.totalNodes); err != nil {
		return err
	}
	if err := dt.labels.WriteTo(w); err != nil {
		return err
	}
	if err := dt.hasChild.WriteTo(w); err != nil {
		return err
	}
	return dt.isPrefixKey.WriteTo(w)
}

// ReadFrom deserializes a dense tier written by WriteTo, recomputing
// the derived termEdges bitmap from labels and hasChild.
func ReadFrom(r io.Reader) (*DenseTrie, error) {
	sparseStartLevel, err := readU32(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "densetrie: truncated sparse start level")
	}
	totalNodes, err := readU32(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "densetrie: truncated total node count")
	}
	labels, err := bitvector.ReadFrom(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "densetrie: truncated labels bitmap")
	}
	hasChild, err := bitvector.ReadFrom(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "densetrie: truncated hasChild bitmap")
	}
	isPrefixKey, err := bitvector.ReadFrom(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "densetrie: truncated isPrefixKey bitmap")
	}

	dt := &DenseTrie{
		labels:           labels,
		hasChild:         hasChild,
		isPrefixKey:      isPrefixKey,
		sparseStartLevel: sparseStartLevel,
		totalNodes:       totalNodes,
	}
	dt.termEdges = deriveTermEdges(labels, hasChild)
	if totalNodes > 0 {
		dt.totalTerminators = dt.isPrefixKey.Rank1(totalNodes-1) + dt.termEdges.Rank1(totalNodes*fanout-1)
	}
	return dt, nil
}

func deriveTermEdges(labels, hasChild *bitvector.Bitvector) *bitvector.Bitvector {
	n := labels.NumBits()
	words := make([]uint64, n/64+1)
	for i := uint32(0); i < n; i++ {
		if labels.IsSet(i) && !hasChild.IsSet(i) {
			setWordBit(words, i)
		}
	}
	return bitvector.New(words, n, bitvector.DefaultBasicBlockSize)
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
