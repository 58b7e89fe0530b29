package resumedata

import (
	"net/netip"
	"testing"

	"github.com/Falcosc/libtorrent/bencode"
	"github.com/Falcosc/libtorrent/metainfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testInfoHash = [20]byte{0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab, 0xab}

func encode(t *testing.T, d bencode.Dict) []byte {
	b, err := bencode.Encode(d)
	require.NoError(t, err)
	return b
}

func TestUnmarshalMinimal(t *testing.T) {
	b := encode(t, bencode.Dict{
		"file-format":   bencode.Bytes(FileFormat),
		"info-hash":     bencode.Bytes(testInfoHash[:]),
		"name":          bencode.Bytes("test"),
		"save_path":     bencode.Bytes("."),
		"peers":         bencode.Bytes("\x01\x01\x01\x01\x00\x01\x02\x02\x02\x02\x00\x02"),
		"file_priority": bencode.List{bencode.Int(0), bencode.Int(1), bencode.Int(1)},
		"unknown_key":   bencode.Int(1),
	})
	d, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, "test", d.Name)
	assert.Equal(t, ".", d.SavePath)
	assert.Equal(t, testInfoHash, d.InfoHash)
	assert.Equal(t, []int{0, 1, 1}, d.FilePriorities)
	assert.Equal(t, []netip.AddrPort{
		netip.MustParseAddrPort("1.1.1.1:1"),
		netip.MustParseAddrPort("2.2.2.2:2"),
	}, d.Peers)
}

func TestRoundTrip(t *testing.T) {
	d := &Data{
		InfoHash:        testInfoHash,
		Name:            "test",
		SavePath:        ".",
		Peers:           []netip.AddrPort{netip.MustParseAddrPort("1.1.1.1:1"), netip.MustParseAddrPort("[2001:db8::2]:2")},
		BannedPeers:     []netip.AddrPort{netip.MustParseAddrPort("3.3.3.3:3")},
		FilePriorities:  []int{0, 1, 1},
		PiecePriorities: []int{4, 0, 7},
		Pieces:          []bool{true, false, true},
		Trackers:        [][]string{{"http://a/announce", "http://b/announce"}, {"udp://c:80"}},
		URLSeeds:        []string{"http://seed/"},
		HTTPSeeds:       []string{"http://hseed/"},
		TotalUploaded:   10,
		TotalDownloaded: 20,
		ActiveTime:      30,
		SeedingTime:     5,
		FinishedTime:    6,
		AddedTime:       1400000000,
		CompletedTime:   1400000100,
		LastUpload:      1400000200,
		LastDownload:    1400000300,
		Paused:          true,
	}
	b, err := Marshal(d)
	require.NoError(t, err)
	d2, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, d, d2)
}

func TestRoundTripInfo(t *testing.T) {
	// keys are not sorted
	info := []byte("d4:name1:a12:piece lengthi16384e6:pieces20:aaaaaaaaaaaaaaaaaaaa6:lengthi5ee")
	parsed, err := metainfo.NewInfo(info)
	require.NoError(t, err)

	b, err := Marshal(&Data{InfoHash: parsed.Hash, SavePath: "/tmp", InfoBytes: info})
	require.NoError(t, err)
	d, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, info, d.InfoBytes)
}

func TestUnmarshalErrors(t *testing.T) {
	base := func() bencode.Dict {
		return bencode.Dict{
			"info-hash": bencode.Bytes(testInfoHash[:]),
			"save_path": bencode.Bytes("."),
		}
	}
	cases := []struct {
		name   string
		modify func(bencode.Dict)
		err    error
	}{
		{"missing info hash", func(d bencode.Dict) { delete(d, "info-hash") }, metainfo.ErrMissingField},
		{"missing save path", func(d bencode.Dict) { delete(d, "save_path") }, metainfo.ErrMissingField},
		{"short info hash", func(d bencode.Dict) { d["info-hash"] = bencode.Bytes("abc") }, metainfo.ErrInvalidField},
		{"wrong file format", func(d bencode.Dict) { d["file-format"] = bencode.Bytes("other") }, metainfo.ErrInvalidField},
		{"peers length", func(d bencode.Dict) { d["peers"] = bencode.Bytes("\x01\x01\x01\x01\x00") }, bencode.ErrMalformed},
		{"peers6 length", func(d bencode.Dict) { d["peers6"] = bencode.Bytes("\x01\x01\x01\x01\x00\x01") }, bencode.ErrMalformed},
		{"file priority type", func(d bencode.Dict) { d["file_priority"] = bencode.Bytes("x") }, metainfo.ErrInvalidField},
		{"name type", func(d bencode.Dict) { d["name"] = bencode.Int(1) }, metainfo.ErrInvalidField},
		{"trackers type", func(d bencode.Dict) { d["trackers"] = bencode.List{bencode.Int(1)} }, metainfo.ErrInvalidField},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := base()
			c.modify(d)
			_, err := Unmarshal(encode(t, d))
			assert.ErrorIs(t, err, c.err)
		})
	}

	_, err := Unmarshal([]byte("li1ee"))
	assert.ErrorIs(t, err, bencode.ErrMalformed)
	_, err = Unmarshal([]byte("d9:info-hash"))
	assert.ErrorIs(t, err, bencode.ErrMalformed)
}
