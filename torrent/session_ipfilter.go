package torrent

import (
	"fmt"
	"io"
	"net/netip"
	"os"

	"github.com/Falcosc/libtorrent/internal/ipfilter"
)

// IPRange is an inclusive range of blocked addresses.
type IPRange = ipfilter.Range

func (s *Session) loadBlocklist(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := s.filter.Reload(f)
	if err != nil {
		return fmt.Errorf("cannot load blocklist: %w", err)
	}
	s.log.Infof("loaded %d blocklist rules", n)
	return nil
}

// LoadIPFilter replaces the IP filter with the rules read from r and returns the number of rules.
// Known peers in blocked ranges are dropped from every torrent.
func (s *Session) LoadIPFilter(r io.Reader) (int, error) {
	n, err := s.filter.Reload(r)
	if err != nil {
		return 0, err
	}
	s.dropBlockedPeers()
	return n, nil
}

// BlockIPRange adds a rule to the IP filter. The last rule wins where rules overlap.
func (s *Session) BlockIPRange(first, last netip.Addr) error {
	if err := s.filter.Block(first, last); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	s.dropBlockedPeers()
	return nil
}

// AllowIPRange removes a range from the IP filter.
func (s *Session) AllowIPRange(first, last netip.Addr) error {
	if err := s.filter.Allow(first, last); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidField, err)
	}
	return nil
}

// IPFilter returns the blocked ranges in ascending order.
func (s *Session) IPFilter() []IPRange {
	return s.filter.Ranges()
}

func (s *Session) dropBlockedPeers() {
	for _, t := range s.torrentList() {
		t.dropBlocked()
	}
}
