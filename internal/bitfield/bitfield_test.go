package bitfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBytes(t *testing.T) {
	v := NewBytes([]byte{0x0f}, 8)
	assert.Equal(t, "0f", v.Hex())

	v = NewBytes([]byte{0x0f}, 7)
	assert.Equal(t, "0e", v.Hex())

	assert.Panics(t, func() { NewBytes([]byte{0x0f}, 9) })
}

func TestSetClear(t *testing.T) {
	v := New(10)
	assert.Equal(t, "0000", v.Hex())

	v.Set(0)
	assert.Equal(t, "8000", v.Hex())
	v.Set(9)
	assert.Equal(t, "8040", v.Hex())
	assert.Panics(t, func() { v.Set(10) })

	v.Clear(0)
	assert.Equal(t, "0040", v.Hex())
	assert.False(t, v.Test(2))
	assert.True(t, v.Test(9))
	assert.Equal(t, uint32(1), v.Count())
	assert.False(t, v.All())
}

func TestBools(t *testing.T) {
	have := []bool{true, false, true, true, false, false, false, false, true}
	v := FromBools(have)
	assert.Equal(t, have, v.Bools())
	assert.Equal(t, uint32(4), v.Count())

	c := v.Copy()
	c.ClearAll()
	assert.Equal(t, uint32(4), v.Count())
	assert.Equal(t, uint32(0), c.Count())
}
