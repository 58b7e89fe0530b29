// Package bitfield is the completion bitmap of a torrent's pieces.
package bitfield

import "encoding/hex"

// BitField is a fixed length set of bits. 0 is the most significant bit of the first byte.
type BitField struct {
	b      []byte
	length uint32
}

// New creates a new BitField value of length bits.
func New(length uint32) BitField {
	return BitField{make([]byte, (length+7)/8), length}
}

// NewBytes returns a new BitField value from b.
// Bytes in b are not copied. Unused bits in last byte are cleared.
// Panics if b is not big enough to hold "length" bits.
func NewBytes(b []byte, length uint32) BitField {
	required := (length + 7) / 8
	if uint32(len(b)) < required {
		panic("not enough bytes in slice for specified length")
	}
	b = b[:required]
	if mod := length % 8; mod != 0 {
		b[len(b)-1] &= ^(0xff >> mod)
	}
	return BitField{b, length}
}

// FromBools returns a BitField with bit i set when have[i] is true.
func FromBools(have []bool) BitField {
	bf := New(uint32(len(have)))
	for i, ok := range have {
		if ok {
			bf.Set(uint32(i))
		}
	}
	return bf
}

// Bytes returns bytes in b. If you modify the returned slice the bits in b are modified too.
func (b *BitField) Bytes() []byte { return b.b }

// Len returns the number of bits as given to New.
func (b *BitField) Len() uint32 { return b.length }

// Hex returns bytes as string. If not all the bits in last byte are used, they encode as not set.
func (b *BitField) Hex() string { return hex.EncodeToString(b.b) }

// Copy returns a BitField that does not share memory with b.
func (b *BitField) Copy() BitField {
	return BitField{append([]byte(nil), b.b...), b.length}
}

// Set bit i. Panics if i >= b.Len().
func (b *BitField) Set(i uint32) {
	b.checkIndex(i)
	b.b[i/8] |= 1 << (7 - i%8)
}

// SetTo sets bit i to value. Panics if i >= b.Len().
func (b *BitField) SetTo(i uint32, value bool) {
	if value {
		b.Set(i)
	} else {
		b.Clear(i)
	}
}

// Clear bit i. Panics if i >= b.Len().
func (b *BitField) Clear(i uint32) {
	b.checkIndex(i)
	b.b[i/8] &= ^(1 << (7 - i%8))
}

// ClearAll clears all bits.
func (b *BitField) ClearAll() {
	for i := range b.b {
		b.b[i] = 0
	}
}

// Test bit i. Panics if i >= b.Len().
func (b *BitField) Test(i uint32) bool {
	b.checkIndex(i)
	return b.b[i/8]&(1<<(7-i%8)) != 0
}

// Bools returns a slice with one element per bit.
func (b *BitField) Bools() []bool {
	ret := make([]bool, b.length)
	for i := range ret {
		ret[i] = b.Test(uint32(i))
	}
	return ret
}

// Count returns the count of set bits.
func (b *BitField) Count() uint32 {
	var total uint32
	for _, v := range b.b {
		for ; v != 0; v &= v - 1 {
			total++
		}
	}
	return total
}

// All returns true if all bits are set, false otherwise.
func (b *BitField) All() bool {
	return b.Count() == b.length
}

func (b *BitField) checkIndex(i uint32) {
	if i >= b.Len() {
		panic("index out of bound")
	}
}
