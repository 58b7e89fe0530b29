// Package peerset provides an ordered set of peer addresses.
package peerset

import (
	"net/netip"

	"github.com/google/btree"
)

// PeerSet keeps addresses sorted by IP then port. It is not safe for concurrent use.
type PeerSet struct {
	tree *btree.BTreeG[netip.AddrPort]
}

func less(a, b netip.AddrPort) bool {
	if c := a.Addr().Compare(b.Addr()); c != 0 {
		return c < 0
	}
	return a.Port() < b.Port()
}

// New returns a set containing addrs.
func New(addrs ...netip.AddrPort) *PeerSet {
	s := &PeerSet{tree: btree.NewG[netip.AddrPort](8, less)}
	for _, a := range addrs {
		s.Add(a)
	}
	return s
}

// Add new peer to the set. IPv4-mapped IPv6 addresses are stored as IPv4.
// Returns false if the address is invalid or already present.
func (l *PeerSet) Add(addr netip.AddrPort) bool {
	addr = normalize(addr)
	if !addr.IsValid() {
		return false
	}
	_, found := l.tree.ReplaceOrInsert(addr)
	return !found
}

// Remove peer from the set.
func (l *PeerSet) Remove(addr netip.AddrPort) bool {
	_, found := l.tree.Delete(normalize(addr))
	return found
}

// Has returns true if the set contains the peer.
func (l *PeerSet) Has(addr netip.AddrPort) bool {
	return l.tree.Has(normalize(addr))
}

// Len returns the number of items in the set.
func (l *PeerSet) Len() int {
	return l.tree.Len()
}

// List returns the addresses in ascending order.
func (l *PeerSet) List() []netip.AddrPort {
	ret := make([]netip.AddrPort, 0, l.tree.Len())
	l.tree.Ascend(func(a netip.AddrPort) bool {
		ret = append(ret, a)
		return true
	})
	return ret
}

func normalize(addr netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())
}
