package metainfo

import (
	"crypto/sha1" // nolint: gosec
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Falcosc/libtorrent/bencode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTorrent(t *testing.T, name string) []byte {
	b, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestTorrent(t *testing.T) {
	f, err := os.Open("testdata/base.torrent")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tor, err := New(f)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "temp", tor.Info.Name)
	assert.Equal(t, int64(425), tor.Info.TotalLength)
	assert.Equal(t, uint32(1), tor.Info.NumPieces)
	assert.Equal(t, uint32(425), tor.Info.PieceSize(0))
	assert.False(t, tor.Info.MultiFile())
	assert.Equal(t, "b7d1d612e44200ed773e5c9e15a7c6ceffd970cb", hex.EncodeToString(tor.Info.Hash[:]))
	assert.Equal(t, [][]string{{"http://tracker.example.com/announce"}}, tor.AnnounceList)
	assert.Equal(t, "test", tor.CreatedBy)
	assert.Equal(t, time.Unix(1400000000, 0).UTC(), tor.CreationDate)
	assert.Equal(t, "temp", tor.Info.FilePath(0))
}

func TestRoundTripUnordered(t *testing.T) {
	b := readTorrent(t, "unordered.torrent")
	mi, err := Parse(b)
	require.NoError(t, err)

	out, err := bencode.Encode(mi.Generate())
	require.NoError(t, err)
	assert.Equal(t, string(b), string(out))

	assert.Equal(t, "bc9542a4cbc585375d9e2cc40d41025c42cea3bb", hex.EncodeToString(mi.Info.Hash[:]))
	assert.Equal(t, URLList{"http://test.com/test"}, mi.URLList)
	assert.Equal(t, "unordered", mi.Comment)

	// info keys are not in canonical order so the hash covers the original bytes
	assert.True(t, strings.HasPrefix(string(mi.Metadata()), "d4:name9:unordered"))
}

func TestBuilderRoundTrip(t *testing.T) {
	for _, name := range []string{"base.torrent", "unordered.torrent", "url_seed_multi.torrent"} {
		b := readTorrent(t, name)
		mi, err := Parse(b)
		require.NoError(t, err, name)
		out, err := bencode.Encode(NewBuilder(mi).Generate())
		require.NoError(t, err)
		assert.Equal(t, string(b), string(out), name)
	}
}

func TestInfoHashOfNonCanonicalInfo(t *testing.T) {
	// "name" is before "length"
	info := "d4:name1:a6:lengthi1e12:piece lengthi16384e6:pieces20:" + strings.Repeat("a", 20) + "e"
	mi, err := Parse([]byte("d4:info" + info + "e"))
	require.NoError(t, err)
	assert.Equal(t, info, string(mi.Metadata()))
	assert.Equal(t, sha1.Sum([]byte(info)), mi.InfoHash())

	v, err := bencode.Decode([]byte(info))
	require.NoError(t, err)
	canonical, err := bencode.Encode(v)
	require.NoError(t, err)
	assert.NotEqual(t, info, string(canonical))
	assert.NotEqual(t, sha1.Sum(canonical), mi.InfoHash())

	// the original bytes are emitted again
	out, err := bencode.Encode(mi.Generate())
	require.NoError(t, err)
	assert.Equal(t, "d4:info"+info+"e", string(out))
}

func TestMultiFile(t *testing.T) {
	mi, err := Parse(readTorrent(t, "url_seed_multi.torrent"))
	require.NoError(t, err)

	assert.True(t, mi.Info.MultiFile())
	assert.Equal(t, 2, mi.NumFiles())
	assert.Equal(t, int64(300), mi.Info.TotalLength)
	assert.Equal(t, "temp/foo/bar.txt", mi.Info.FilePath(0))
	assert.Equal(t, "temp/foo/var.txt", mi.Info.FilePath(1))
	assert.Equal(t, int64(100), mi.Info.Files[1].Offset)
	assert.Equal(t, "f22dfe1916cfff5840bad4cd63434d396a327a04", hex.EncodeToString(mi.Info.Hash[:]))
	assert.Equal(t, URLList{"http://test.com/test", "http://mirror.test.com/test"}, mi.URLList)

	begin, end := mi.Info.FilePieceRange(1)
	assert.Equal(t, uint32(0), begin)
	assert.Equal(t, uint32(1), end)
}

func TestHashForPiece(t *testing.T) {
	mi, err := Parse(readTorrent(t, "base.torrent"))
	require.NoError(t, err)

	h, err := mi.HashForPiece(0)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 20), string(h[:]))

	_, err = mi.HashForPiece(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNewFromValue(t *testing.T) {
	v := bencode.Dict{
		"info": bencode.Dict{
			"name":         bencode.Bytes("test_torrent"),
			"length":       bencode.Int(1234),
			"piece length": bencode.Int(16 * 1024),
			"pieces":       bencode.Bytes(strings.Repeat("b", 20)),
		},
	}
	mi, err := NewFromValue(v)
	require.NoError(t, err)
	assert.Equal(t, 1, mi.NumFiles())
	assert.Equal(t, int64(1234), mi.Info.TotalLength)
	assert.Equal(t, "test_torrent", mi.Info.Name)

	enc, err := bencode.Encode(v["info"])
	require.NoError(t, err)
	assert.Equal(t, enc, mi.Metadata())
}

func TestParseErrors(t *testing.T) {
	pieces := "6:pieces20:" + strings.Repeat("a", 20)
	cases := []struct {
		name  string
		input string
		err   error
	}{
		{"malformed", "d4:info", bencode.ErrMalformed},
		{"not a dict", "li1ee", ErrInvalidField},
		{"missing info", "d8:announce3:fooe", ErrMissingField},
		{"info not a dict", "d4:infoi1ee", ErrInvalidField},
		{"missing piece length", "d4:infod6:lengthi1e" + pieces + "ee", ErrMissingField},
		{"zero piece length", "d4:infod6:lengthi1e12:piece lengthi0e" + pieces + "ee", ErrInvalidField},
		{"missing pieces", "d4:infod6:lengthi1e12:piece lengthi16384eee", ErrMissingField},
		{"short pieces", "d4:infod6:lengthi1e12:piece lengthi16384e6:pieces19:" + strings.Repeat("a", 19) + "ee", ErrInvalidField},
		{"missing length", "d4:infod12:piece lengthi16384e" + pieces + "ee", ErrMissingField},
		{"length and files", "d4:infod5:filesld6:lengthi1e4:pathl1:aeee6:lengthi1e12:piece lengthi16384e" + pieces + "ee", ErrInvalidField},
		{"piece count", "d4:infod6:lengthi16385e12:piece lengthi16384e" + pieces + "ee", ErrInvalidField},
		{"negative length", "d4:infod6:lengthi-1e12:piece lengthi16384e" + pieces + "ee", ErrInvalidField},
		{"empty path", "d4:infod5:filesld6:lengthi1e4:pathleee12:piece lengthi16384e" + pieces + "ee", ErrInvalidField},
		{"dot dot", "d4:infod5:filesld6:lengthi1e4:pathl2:..1:aeee12:piece lengthi16384e" + pieces + "ee", ErrInvalidField},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mi, err := Parse([]byte(c.input))
			assert.Nil(t, mi)
			assert.True(t, errors.Is(err, c.err), "%v", err)
		})
	}
}

func TestBuilderWebSeeds(t *testing.T) {
	mi, err := Parse(readTorrent(t, "base.torrent"))
	require.NoError(t, err)

	b := NewBuilder(mi)
	assert.Empty(t, b.WebSeeds())
	seeds := []WebSeed{
		{URL: "http://foo/test", Type: URLSeed},
		{URL: "http://bar/test", Auth: "user:pass", Type: HTTPSeed},
	}
	b.SetWebSeeds(seeds)
	assert.Equal(t, seeds, b.WebSeeds())

	frozen, err := b.Freeze()
	require.NoError(t, err)
	assert.Equal(t, mi.InfoHash(), frozen.InfoHash())
	assert.Equal(t, []WebSeed{
		{URL: "http://foo/test", Type: URLSeed},
		{URL: "http://bar/test", Type: HTTPSeed},
	}, frozen.WebSeeds())

	// the original is not affected
	assert.Empty(t, mi.WebSeeds())

	b.SetWebSeeds(nil)
	frozen, err = b.Freeze()
	require.NoError(t, err)
	assert.Empty(t, frozen.WebSeeds())
}

func TestBuilderTrackers(t *testing.T) {
	mi, err := Parse(readTorrent(t, "base.torrent"))
	require.NoError(t, err)

	b := NewBuilder(mi)
	b.AddTracker("udp://tracker.example.com:80", 1)
	b.SetComment("hello")
	b.SetCreator("")
	frozen, err := b.Freeze()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"http://tracker.example.com/announce"},
		{"udp://tracker.example.com:80"},
	}, frozen.AnnounceList)
	assert.Equal(t, "hello", frozen.Comment)
	assert.Equal(t, "", frozen.CreatedBy)
}

func TestEmptyBuilder(t *testing.T) {
	mi, err := Parse(readTorrent(t, "url_seed_multi.torrent"))
	require.NoError(t, err)

	b := NewEmptyBuilder(mi.Info)
	b.AddTracker("http://t/announce", 0)
	b.SetCreationDate(time.Unix(1500000000, 0))
	frozen, err := b.Freeze()
	require.NoError(t, err)
	assert.Equal(t, mi.InfoHash(), frozen.InfoHash())
	assert.Equal(t, [][]string{{"http://t/announce"}}, frozen.AnnounceList)
	assert.Equal(t, int64(1500000000), frozen.CreationDate.Unix())
}
