package piecepriority

import (
	"strings"
	"testing"

	"github.com/Falcosc/libtorrent/bencode"
	"github.com/Falcosc/libtorrent/metainfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newInfo returns a torrent with piece length 16 and files of given lengths.
func newInfo(t *testing.T, lengths ...int64) *metainfo.Info {
	var total int64
	var files bencode.List
	for i, l := range lengths {
		total += l
		files = append(files, bencode.Dict{
			"length": bencode.Int(l),
			"path":   bencode.List{bencode.Bytes(string(rune('a' + i)))},
		})
	}
	numPieces := (total + 15) / 16
	b, err := bencode.Encode(bencode.Dict{
		"name":         bencode.Bytes("test"),
		"piece length": bencode.Int(16),
		"pieces":       bencode.Bytes(strings.Repeat("x", int(20*numPieces))),
		"files":        files,
	})
	require.NoError(t, err)
	info, err := metainfo.NewInfo(b)
	require.NoError(t, err)
	return info
}

func TestCascadeSinglePiece(t *testing.T) {
	info := newInfo(t, 10, 2)
	assert.Equal(t, []int{Default}, Cascade(info, Fill(2, Default)))
	assert.Equal(t, []int{1}, Cascade(info, []int{0, 1}))
	assert.Equal(t, []int{Skip}, Cascade(info, []int{0, 0}))
}

func TestCascadeMaxOfOverlapping(t *testing.T) {
	// pieces: [0,16) [16,32) [32,48)
	// files:  a=[0,20) b=[20,40) c=[40,48)
	info := newInfo(t, 20, 20, 8)
	assert.Equal(t, []int{2, 5, 5}, Cascade(info, []int{2, 5, 1}))
	assert.Equal(t, []int{0, 3, 3}, Cascade(info, []int{0, 3, 0}))
	assert.Equal(t, []int{7, 7, 1}, Cascade(info, []int{7, 0, 1}))
}

func TestCascadeEmptyFile(t *testing.T) {
	info := newInfo(t, 16, 0, 16)
	assert.Equal(t, []int{1, 2}, Cascade(info, []int{1, 7, 2}))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(0))
	assert.True(t, Valid(7))
	assert.False(t, Valid(8))
	assert.False(t, Valid(-1))
}
