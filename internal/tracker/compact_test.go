package tracker

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactPeer(t *testing.T) {
	cp := CompactPeer{
		IP:   netip.AddrFrom4([4]byte{1, 2, 3, 4}),
		Port: 5,
	}
	b, err := cp.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 0, 5}, b)

	var cp2 CompactPeer
	require.NoError(t, cp2.UnmarshalBinary(b))
	assert.Equal(t, cp, cp2)
}

func TestEncodeDecodePeers(t *testing.T) {
	addrs := []netip.AddrPort{
		netip.MustParseAddrPort("1.1.1.1:1"),
		netip.MustParseAddrPort("[2001:db8::1]:6881"),
		netip.MustParseAddrPort("2.2.2.2:2"),
	}
	v4, v6 := EncodePeersCompact(addrs)
	assert.Equal(t, "\x01\x01\x01\x01\x00\x01\x02\x02\x02\x02\x00\x02", string(v4))
	assert.Len(t, v6, 18)

	got, err := DecodePeersCompact(v4)
	require.NoError(t, err)
	assert.Equal(t, []netip.AddrPort{addrs[0], addrs[2]}, got)

	got, err = DecodePeers6Compact(v6)
	require.NoError(t, err)
	assert.Equal(t, []netip.AddrPort{addrs[1]}, got)

	_, err = DecodePeersCompact(v4[:7])
	assert.ErrorIs(t, err, ErrPeerListLength)
}
