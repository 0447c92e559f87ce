// Package compactarray implements component D: a bit-packed array of
// fixed-width unsigned integers, one 32-bit-word chunk store per spec
// §4.D, ported directly from the layout of
// original_source/include/compact_array.hpp (CompactArray there packs
// into 32-bit words rather than 64-bit, so this keeps that width
// rather than the wider words bitvector uses elsewhere in this
// module).
package compactarray

import (
	"encoding/binary"
	"io"
)

// CompactArray stores size fixed-width (bits-wide, 1<=bits<=32)
// unsigned values packed across 32-bit chunks.
type CompactArray struct {
	size   uint32
	mask   uint32
	bits   uint32
	chunks []uint32
}

// New packs input into a CompactArray using bits bits per entry.
func New(input []uint32, bits uint32) *CompactArray {
	ca := &CompactArray{
		size:   uint32(len(input)),
		mask:   (uint32(1) << bits) - 1,
		bits:   bits,
		chunks: make([]uint32, uint32(len(input))*bits/32+1),
	}
	for i, v := range input {
		quo := uint32(i) * bits / 32
		mod := uint32(i) * bits % 32
		ca.chunks[quo] &^= ca.mask << mod
		ca.chunks[quo] |= (v & ca.mask) << mod
		if mod+bits > 32 {
			ca.chunks[quo+1] &^= ca.mask >> (32 - mod)
			ca.chunks[quo+1] |= (v & ca.mask) >> (32 - mod)
		}
	}
	return ca
}

// Get returns the i-th stored value.
func (ca *CompactArray) Get(i uint32) uint32 {
	quo := i * ca.bits / 32
	mod := i * ca.bits % 32
	if mod+ca.bits <= 32 {
		return (ca.chunks[quo] >> mod) & ca.mask
	}
	return ((ca.chunks[quo] >> mod) | (ca.chunks[quo+1] << (32 - mod))) & ca.mask
}

// Size returns the number of stored entries.
func (ca *CompactArray) Size() uint32 {
	return ca.size
}

// Bits returns the per-entry bit width.
func (ca *CompactArray) Bits() uint32 {
	return ca.bits
}

// MemSize returns the resident size estimate in bytes.
func (ca *CompactArray) MemSize() uint32 {
	return uint32(len(ca.chunks)) * 4
}

// WriteTo serializes size, mask, bits, and the chunk words.
func (ca *CompactArray) WriteTo(w io.Writer) error {
	if err := writeU32(w, ca.size); err != nil {
		return err
	}
	if err := writeU32(w, ca.mask); err != nil {
		return err
	}
	if err := writeU32(w, ca.bits); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(ca.chunks))); err != nil {
		return err
	}
	for _, c := range ca.chunks {
		if err := writeU32(w, c); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrom deserializes a CompactArray written by WriteTo.
func ReadFrom(r io.Reader) (*CompactArray, error) {
	size, err := readU32(r)
	if err != nil {
		return nil, err
	}
	mask, err := readU32(r)
	if err != nil {
		return nil, err
	}
	bits, err := readU32(r)
	if err != nil {
		return nil, err
	}
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	chunks := make([]uint32, n)
	for i := range chunks {
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		chunks[i] = v
	}
	return &CompactArray{size: size, mask: mask, bits: bits, chunks: chunks}, nil
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
