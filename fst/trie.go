// Package fst assembles the dense tier, sparse tier, and suffix store
// into a single exact-match index, grounded on original_source/include/
// fst.hpp's Trie class: its two-pass construction (build the levels,
// then re-traverse the freshly built trie to discover each key's
// terminal (key_id, level) pair for the suffix pass) and its
// three-outcome lookup (dense hit, dense-to-sparse handoff, sparse
// hit), now built by composing densetrie/sparsetrie/suffixstore
// instead of one monolithic class.
package fst

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kampersanda/fast-succinct-trie/bitvector"
	"github.com/kampersanda/fast-succinct-trie/densetrie"
	"github.com/kampersanda/fast-succinct-trie/errutil"
	"github.com/kampersanda/fast-succinct-trie/fstbuilder"
	"github.com/kampersanda/fast-succinct-trie/sparsetrie"
	"github.com/kampersanda/fast-succinct-trie/suffixstore"
	"github.com/kampersanda/fast-succinct-trie/utils"
)

// NotFound is the sentinel key-ID returned alongside ok == false,
// mirroring the all-ones not-found ID convention used by the builder's
// lookup side.
const NotFound uint32 = ^uint32(0)

const (
	magic   = 0x53465354 // "FSTS"
	version = 1
)

// BuildOptions configures the dense/sparse crossover and the
// rank/select tuning knobs (spec §4.A/§4.B, surf::config.hpp's
// kIncludeDense/kSparseDenseRatio).
type BuildOptions struct {
	IncludeDense     bool
	SparseDenseRatio uint32
	BasicBlockSize   uint32
	SelectSampleRate uint32
}

// DefaultBuildOptions mirrors the defaults carried by the component
// packages themselves.
var DefaultBuildOptions = BuildOptions{
	IncludeDense:     true,
	SparseDenseRatio: fstbuilder.DefaultSparseDenseRatio,
	BasicBlockSize:   bitvector.DefaultBasicBlockSize,
	SelectSampleRate: bitvector.DefaultSelectSampleRate,
}

// Trie is a static, exact-match succinct trie index: stable key-IDs
// over a presorted, deduplicated key set, no mutation after Build.
type Trie struct {
	dense  *densetrie.DenseTrie // nil when every level is sparse
	sparse *sparsetrie.SparseTrie
	suffix *suffixstore.SuffixStore

	numKeys          uint32
	height           uint32
	sparseStartLevel uint32
}

// Build constructs a Trie from a sorted key list. Keys must be
// strictly ascending except for allowed adjacent duplicates (folded
// away) and must not contain the reserved 0x00 byte.
func Build(keys [][]byte, opts BuildOptions) (*Trie, error) {
	shape, deduped, err := fstbuilder.Build(keys, fstbuilder.Options{
		IncludeDense:     opts.IncludeDense,
		SparseDenseRatio: opts.SparseDenseRatio,
	})
	if err != nil {
		return nil, err
	}

	t := &Trie{
		numKeys:          shape.NumKeys,
		height:           uint32(len(shape.Levels)),
		sparseStartLevel: shape.SparseStartLevel,
	}

	var denseTerminators uint32
	if shape.SparseStartLevel > 0 {
		t.dense = densetrie.Build(shape.Levels, shape.SparseStartLevel, opts.BasicBlockSize)
		denseTerminators = t.dense.TotalTerminators()
	}
	t.sparse = sparsetrie.Build(shape.Levels[shape.SparseStartLevel:], denseTerminators, opts.BasicBlockSize, opts.SelectSampleRate)

	suffix, err := suffixstore.Build(deduped, shape.NumKeys, t.locate)
	if err != nil {
		return nil, err
	}
	t.suffix = suffix
	return t, nil
}

// locate re-traverses the already-built trie to find a key's
// (key_id, level) pair, the same structural walk ExactSearch performs,
// so construction and lookup never disagree about key-ID assignment.
func (t *Trie) locate(key []byte) (uint32, uint32, bool) {
	if t.sparseStartLevel == 0 {
		res := t.sparse.Find(0, 0, key)
		if res.Outcome != sparsetrie.Terminated {
			return 0, 0, false
		}
		return res.KeyID, res.Level, true
	}

	dres := t.dense.Find(key)
	switch dres.Outcome {
	case densetrie.Terminated:
		return dres.KeyID, dres.Level, true
	case densetrie.Continue:
		sres := t.sparse.Find(dres.SparseNode, dres.Level, key)
		if sres.Outcome != sparsetrie.Terminated {
			return 0, 0, false
		}
		return sres.KeyID, sres.Level, true
	default:
		return 0, 0, false
	}
}

// ExactSearch reports whether key was present in the build set and,
// if so, its stable key-ID. A structural match alone never proves
// equality: the remaining query bytes beyond the matched level must
// still agree with the key's stored tail (spec §4.H "Lookup side").
func (t *Trie) ExactSearch(key []byte) (uint32, bool) {
	keyID, level, ok := t.locate(key)
	if !ok {
		return NotFound, false
	}
	if !t.suffix.Verify(keyID, key[level:]) {
		return NotFound, false
	}
	return keyID, true
}

// NumKeys returns the number of distinct keys indexed.
func (t *Trie) NumKeys() uint32 { return t.numKeys }

// Height returns the number of trie levels (dense plus sparse).
func (t *Trie) Height() uint32 { return t.height }

// SparseStartLevel returns the level at which the sparse tier begins.
// Zero means every level is sparse.
func (t *Trie) SparseStartLevel() uint32 { return t.sparseStartLevel }

// SuffixBytes returns the size of the shared tail arena in bytes.
func (t *Trie) SuffixBytes() uint32 { return t.suffix.ArenaLen() }

// NumNodes returns the total number of trie nodes across both tiers.
func (t *Trie) NumNodes() uint32 {
	var n uint32
	if t.dense != nil {
		n += t.dense.TotalNodes()
	}
	return n + t.sparse.NumNodes()
}

// MemoryUsage returns a hierarchical breakdown of the trie's resident
// memory, in the same tree shape DebugPrint renders.
func (t *Trie) MemoryUsage() utils.MemReport {
	children := []utils.MemReport{}
	if t.dense != nil {
		children = append(children, utils.MemReport{Name: "dense", TotalBytes: int(t.dense.MemSize())})
	}
	children = append(children,
		utils.MemReport{Name: "sparse", TotalBytes: int(t.sparse.MemSize())},
		utils.MemReport{Name: "suffixes", TotalBytes: int(t.suffix.MemSize())},
	)
	var total int
	for _, c := range children {
		total += c.TotalBytes
	}
	return utils.MemReport{Name: "trie", TotalBytes: total, Children: children}
}

// SerializedSize returns the number of bytes Save would write.
func (t *Trie) SerializedSize() (uint32, error) {
	var buf bytes.Buffer
	if err := t.Save(&buf); err != nil {
		return 0, err
	}
	return uint32(buf.Len()), nil
}

// DebugPrint writes a human-readable summary of the trie's shape and
// memory usage, plus a raw dump of the suffix arena and per-key
// pointers, matching fst.hpp's debugPrint convention of rendering the
// suffix arena as one space-separated char/'?' stream.
func (t *Trie) DebugPrint(w io.Writer) {
	io.WriteString(w, t.MemoryUsage().String())

	io.WriteString(w, "suffixes: ")
	for _, b := range t.suffix.Arena() {
		if b >= 0x20 && b < 0x7f {
			io.WriteString(w, string(rune(b)))
		} else {
			io.WriteString(w, "?")
		}
		io.WriteString(w, " ")
	}
	io.WriteString(w, "\n")

	io.WriteString(w, "suffix_ptrs:")
	for id := uint32(0); id < t.numKeys; id++ {
		fmt.Fprintf(w, " %d", t.suffix.Ptr(id))
	}
	io.WriteString(w, "\n")
}

// Save serializes the trie: a magic/version header, the structural
// fields, then each tier in turn.
func (t *Trie) Save(w io.Writer) error {
	if err := writeU32(w, magic); err != nil {
		return err
	}
	if err := writeU32(w, version); err != nil {
		return err
	}
	if err := writeU32(w, t.numKeys); err != nil {
		return err
	}
	if err := writeU32(w, t.height); err != nil {
		return err
	}
	if err := writeU32(w, t.sparseStartLevel); err != nil {
		return err
	}
	hasDense := byte(0)
	if t.dense != nil {
		hasDense = 1
	}
	if _, err := w.Write([]byte{hasDense}); err != nil {
		return err
	}
	if t.dense != nil {
		if err := t.dense.WriteTo(w); err != nil {
			return err
		}
	}
	if err := t.sparse.WriteTo(w); err != nil {
		return err
	}
	return t.suffix.WriteTo(w)
}

// Load deserializes a trie written by Save.
func Load(r io.Reader) (*Trie, error) {
	m, err := readU32(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "truncated magic number")
	}
	if m != magic {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "bad magic number")
	}
	v, err := readU32(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "truncated version")
	}
	if v != version {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "unsupported version")
	}

	numKeys, err := readU32(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "truncated key count")
	}
	height, err := readU32(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "truncated height")
	}
	sparseStartLevel, err := readU32(r)
	if err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "truncated sparse start level")
	}
	var hasDenseByte [1]byte
	if _, err := io.ReadFull(r, hasDenseByte[:]); err != nil {
		return nil, errutil.Wrap(errutil.ErrCorruptIndex, "truncated dense-tier flag")
	}

	t := &Trie{numKeys: numKeys, height: height, sparseStartLevel: sparseStartLevel}
	if hasDenseByte[0] != 0 {
		// densetrie.ReadFrom already wraps its own truncation errors as
		// errutil.ErrCorruptIndex, so its err propagates as-is.
		t.dense, err = densetrie.ReadFrom(r)
		if err != nil {
			return nil, err
		}
	}
	t.sparse, err = sparsetrie.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	t.suffix, err = suffixstore.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
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
