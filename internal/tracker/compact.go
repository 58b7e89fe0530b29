package tracker

import (
	"encoding/binary"
	"errors"
	"net/netip"
)

// Lengths of packed peer addresses.
const (
	CompactPeerLen  = 6
	CompactPeer6Len = 18
)

// ErrPeerListLength is returned when packed peers are not a multiple of the entry size.
var ErrPeerListLength = errors.New("invalid peer list length")

// CompactPeer is a struct value which consist of an IP address and a 2-bytes port value.
// CompactPeer can be used as a key in maps because it does not contain any pointers.
type CompactPeer struct {
	IP   netip.Addr
	Port uint16
}

// NewCompactPeer returns a new CompactPeer from an address.
func NewCompactPeer(addr netip.AddrPort) CompactPeer {
	return CompactPeer{IP: addr.Addr().Unmap(), Port: addr.Port()}
}

// Addr returns the address of the peer.
func (p CompactPeer) Addr() netip.AddrPort {
	return netip.AddrPortFrom(p.IP, p.Port)
}

// MarshalBinary returns 6 bytes for IPv4 and 18 bytes for IPv6 addresses, big-endian.
func (p CompactPeer) MarshalBinary() ([]byte, error) {
	if !p.IP.IsValid() {
		return nil, errors.New("invalid peer address")
	}
	b := p.IP.AsSlice()
	return binary.BigEndian.AppendUint16(b, p.Port), nil
}

// UnmarshalBinary reads 6 or 18 bytes into the CompactPeer.
func (p *CompactPeer) UnmarshalBinary(data []byte) error {
	if len(data) != CompactPeerLen && len(data) != CompactPeer6Len {
		return errors.New("invalid compact peer length")
	}
	ip, _ := netip.AddrFromSlice(data[:len(data)-2])
	p.IP = ip
	p.Port = binary.BigEndian.Uint16(data[len(data)-2:])
	return nil
}

// DecodePeersCompact parses IPv4 peers in 6-byte entries.
func DecodePeersCompact(b []byte) ([]netip.AddrPort, error) {
	return decodePeers(b, CompactPeerLen)
}

// DecodePeers6Compact parses IPv6 peers in 18-byte entries.
func DecodePeers6Compact(b []byte) ([]netip.AddrPort, error) {
	return decodePeers(b, CompactPeer6Len)
}

func decodePeers(b []byte, size int) ([]netip.AddrPort, error) {
	if len(b)%size != 0 {
		return nil, ErrPeerListLength
	}
	addrs := make([]netip.AddrPort, 0, len(b)/size)
	for i := 0; i < len(b); i += size {
		var peer CompactPeer
		if err := peer.UnmarshalBinary(b[i : i+size]); err != nil {
			return nil, err
		}
		addrs = append(addrs, peer.Addr())
	}
	return addrs, nil
}

// EncodePeersCompact packs addrs and returns IPv4 and IPv6 entries separately.
func EncodePeersCompact(addrs []netip.AddrPort) (v4, v6 []byte) {
	for _, a := range addrs {
		b, err := NewCompactPeer(a).MarshalBinary()
		if err != nil {
			continue
		}
		if len(b) == CompactPeerLen {
			v4 = append(v4, b...)
		} else {
			v6 = append(v6, b...)
		}
	}
	return
}
