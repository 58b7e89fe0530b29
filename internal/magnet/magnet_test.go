package magnet

import (
	"encoding/hex"
	"strconv"
	"strings"
	"testing"

	"github.com/Falcosc/libtorrent/metainfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	u := "magnet:?xt=urn:btih:F60CC95E3566AF84C1AB223FD4CE80FA88E6438A&dn=sample_torrent&tr=udp%3a%2f%2ftracker.example.org%3a2710"
	m, err := New(u)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower("F60CC95E3566AF84C1AB223FD4CE80FA88E6438A"), hex.EncodeToString(m.InfoHash[:]))
	assert.Equal(t, "sample_torrent", m.Name)
	assert.Equal(t, [][]string{{"udp://tracker.example.org:2710"}}, m.Trackers)
	assert.True(t, strings.EqualFold(u, m.String()), m.String())
}

func TestParseExtras(t *testing.T) {
	u := "magnet:?xt=urn:btih:f60cc95e3566af84c1ab223fd4ce80fa88e6438a" +
		"&tr.1=http%3A%2F%2Fb%2Fannounce&tr.0=http%3A%2F%2Fa%2Fannounce&tr.0=http%3A%2F%2Fa2%2Fannounce" +
		"&ws=http%3A%2F%2Fseed%2F&x.pe=1.2.3.4:5&so=0,2,4-6"
	m, err := New(u)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"http://a/announce", "http://a2/announce"}, {"http://b/announce"}}, m.Trackers)
	assert.Equal(t, []string{"http://seed/"}, m.WebSeeds)
	assert.Equal(t, []string{"1.2.3.4:5"}, m.Peers)
	assert.Equal(t, []IndexRange{{0, 0}, {2, 2}, {4, 6}}, m.SelectOnly)
	assert.True(t, strings.HasSuffix(m.String(), "&so=0,2,4-6"), m.String())
}

func TestParseSelectOnlyLimit(t *testing.T) {
	const ih = "magnet:?xt=urn:btih:f60cc95e3566af84c1ab223fd4ce80fa88e6438a"
	last := strconv.Itoa(metainfo.MaxFiles - 1)
	m, err := New(ih + "&so=0-" + last)
	require.NoError(t, err)
	assert.Equal(t, []IndexRange{{0, metainfo.MaxFiles - 1}}, m.SelectOnly)

	for _, so := range []string{"30000000", "0-20000000", strconv.Itoa(metainfo.MaxFiles)} {
		_, err = New(ih + "&so=" + so)
		assert.ErrorIs(t, err, metainfo.ErrIndexOutOfRange, so)
	}
}

func TestParseBase32(t *testing.T) {
	m, err := New("magnet:?xt=urn:btih:6YGMSXRVM2XYJQNLEI75JTUA7KEOMQ4K")
	require.NoError(t, err)
	assert.Equal(t, "f60cc95e3566af84c1ab223fd4ce80fa88e6438a", hex.EncodeToString(m.InfoHash[:]))
}

func TestParseMultihash(t *testing.T) {
	m, err := New("magnet:?xt=urn:btmh:1114f60cc95e3566af84c1ab223fd4ce80fa88e6438a")
	require.NoError(t, err)
	assert.Equal(t, "f60cc95e3566af84c1ab223fd4ce80fa88e6438a", hex.EncodeToString(m.InfoHash[:]))
}

func TestParseErrors(t *testing.T) {
	for _, u := range []string{
		"http://example.com",
		"magnet:?dn=x",
		"magnet:?xt=urn:btih:abc",
		"magnet:?xt=urn:foo:f60cc95e3566af84c1ab223fd4ce80fa88e6438a",
		"magnet:?xt=urn:btih:f60cc95e3566af84c1ab223fd4ce80fa88e6438a&so=3-1",
	} {
		_, err := New(u)
		assert.Error(t, err, u)
	}
}
