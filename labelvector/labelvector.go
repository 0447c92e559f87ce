// Package labelvector implements component C: the flat byte array
// holding sparse-tier edge labels, one byte per outgoing edge,
// concatenated across nodes so a node's edges occupy a contiguous
// range (spec §4.C).
package labelvector

import (
	"encoding/binary"
	"io"
)

// LabelVector is a flat, contiguous byte array of edge labels.
type LabelVector struct {
	labels []byte
}

// New wraps an already-built label slice.
func New(labels []byte) *LabelVector {
	return &LabelVector{labels: labels}
}

// Label returns the edge label stored at pos.
func (lv *LabelVector) Label(pos uint32) byte {
	return lv.labels[pos]
}

// NumLabels returns the total number of stored labels.
func (lv *LabelVector) NumLabels() uint32 {
	return uint32(len(lv.labels))
}

// Search performs a linear scan for label c within [first, first+size),
// matching the sparse tier's "O(log fanout) via linear scan within a
// node" access pattern (spec §4.G): node sizes in this trie are small
// enough that a branch-light scan beats a binary search in practice,
// the same tradeoff the sparse LOUDS layer in the corpus makes.
func (lv *LabelVector) Search(c byte, first, size uint32) (uint32, bool) {
	for i := uint32(0); i < size; i++ {
		if lv.labels[first+i] == c {
			return first + i, true
		}
	}
	return 0, false
}

// MemSize returns the resident size estimate in bytes.
func (lv *LabelVector) MemSize() uint32 {
	return uint32(len(lv.labels))
}

// WriteTo serializes the label array as a length prefix followed by
// the raw bytes.
func (lv *LabelVector) WriteTo(w io.Writer) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(lv.labels)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(lv.labels)
	return err
}

// ReadFrom deserializes a label array written by WriteTo.
func ReadFrom(r io.Reader) (*LabelVector, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	labels := make([]byte, n)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, err
	}
	return New(labels), nil
}
