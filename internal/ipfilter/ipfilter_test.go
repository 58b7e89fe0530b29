package ipfilter

import (
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(s string) netip.Addr {
	return netip.MustParseAddr(s)
}

func TestPrefixRange(t *testing.T) {
	r := prefixRange(netip.MustParsePrefix("0.0.1.1/24"))
	assert.Equal(t, addr("0.0.1.0"), r.First)
	assert.Equal(t, addr("0.0.1.255"), r.Last)

	r = prefixRange(netip.MustParsePrefix("2001:db8::1/32"))
	assert.Equal(t, addr("2001:db8::"), r.First)
	assert.Equal(t, addr("2001:db8:ffff:ffff:ffff:ffff:ffff:ffff"), r.Last)
}

func TestReload(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "filter.txt"))
	require.NoError(t, err)
	defer f.Close()

	var logged int
	b := New(func(format string, v ...any) { logged++ })
	n, err := b.Reload(f)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 1, logged)
	assert.Equal(t, 4, b.Len())

	assert.True(t, b.Blocked(addr("6.1.2.3")))
	assert.True(t, b.Blocked(addr("::ffff:6.1.2.3")))
	assert.True(t, b.Blocked(addr("10.1.1.1")))
	assert.True(t, b.Blocked(addr("10.1.1.20")))
	assert.False(t, b.Blocked(addr("10.1.1.21")))
	assert.True(t, b.Blocked(addr("192.168.0.5")))
	assert.False(t, b.Blocked(addr("192.168.0.6")))
	assert.True(t, b.Blocked(addr("2001:db8::42")))
	assert.False(t, b.Blocked(addr("176.240.195.107")))
	assert.False(t, b.Blocked(netip.Addr{}))
}

func TestReloadErrors(t *testing.T) {
	b := New(nil)
	require.NoError(t, b.Block(addr("1.1.1.1"), addr("1.1.1.1")))

	_, err := b.Reload(strings.NewReader("foo\nbar\n"))
	assert.Error(t, err)
	// rules are kept when the new list cannot be read
	assert.True(t, b.Blocked(addr("1.1.1.1")))

	n, err := b.Reload(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, b.Blocked(addr("1.1.1.1")))
}

func TestOverlappingRules(t *testing.T) {
	b := New(nil)
	require.NoError(t, b.Block(addr("10.0.0.0"), addr("10.0.0.255")))
	require.NoError(t, b.Allow(addr("10.0.0.100"), addr("10.0.0.110")))
	assert.Equal(t, []Range{
		{First: addr("10.0.0.0"), Last: addr("10.0.0.99")},
		{First: addr("10.0.0.111"), Last: addr("10.0.0.255")},
	}, b.Ranges())
	assert.True(t, b.Blocked(addr("10.0.0.99")))
	assert.False(t, b.Blocked(addr("10.0.0.105")))

	// a wider rule replaces everything it covers
	require.NoError(t, b.Block(addr("9.255.255.255"), addr("10.0.1.0")))
	assert.Equal(t, []Range{{First: addr("9.255.255.255"), Last: addr("10.0.1.0")}}, b.Ranges())

	// reversed bounds are swapped
	require.NoError(t, b.Allow(addr("10.0.1.0"), addr("10.0.0.0")))
	assert.Equal(t, []Range{{First: addr("9.255.255.255"), Last: addr("9.255.255.255")}}, b.Ranges())

	assert.ErrorIs(t, b.Block(addr("1.2.3.4"), addr("::1")), errMixedFamily)
	assert.Error(t, b.Block(netip.Addr{}, addr("::1")))
}
