// Package ipfilter keeps a set of blocked IP address ranges.
package ipfilter

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"strings"
	"sync"

	"github.com/google/btree"
)

var errMixedFamily = errors.New("range mixes IPv4 and IPv6 addresses")

// Range is an inclusive range of addresses of the same family.
type Range struct {
	First netip.Addr
	Last  netip.Addr
}

// Filter holds blocked ranges ordered by their first address.
// Ranges in the tree never overlap. It is safe for concurrent use.
type Filter struct {
	logger Logger

	m    sync.RWMutex
	tree *btree.BTreeG[Range]
}

// Logger prints error messages during loading. Arguments are handled in the manner of fmt.Printf.
type Logger func(format string, v ...any)

func less(a, b Range) bool {
	return a.First.Less(b.First)
}

// New returns an empty filter that logs unparseable lines with logger. Logger may be nil.
func New(logger Logger) *Filter {
	return &Filter{
		logger: logger,
		tree:   btree.NewG[Range](8, less),
	}
}

// Len returns the number of disjoint blocked ranges.
func (f *Filter) Len() int {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.tree.Len()
}

// Blocked returns true if addr is in a blocked range.
func (f *Filter) Blocked(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() {
		return false
	}
	f.m.RLock()
	defer f.m.RUnlock()
	var blocked bool
	f.tree.DescendLessOrEqual(Range{First: addr}, func(r Range) bool {
		blocked = !r.Last.Less(addr)
		return false
	})
	return blocked
}

// Ranges returns the blocked ranges in ascending order.
func (f *Filter) Ranges() []Range {
	f.m.RLock()
	defer f.m.RUnlock()
	ret := make([]Range, 0, f.tree.Len())
	f.tree.Ascend(func(r Range) bool {
		ret = append(ret, r)
		return true
	})
	return ret
}

// Block adds a rule for [first, last]. The last added rule wins where rules overlap.
func (f *Filter) Block(first, last netip.Addr) error {
	return f.add(first, last, true)
}

// Allow removes [first, last] from the blocked ranges.
func (f *Filter) Allow(first, last netip.Addr) error {
	return f.add(first, last, false)
}

func (f *Filter) add(first, last netip.Addr, blocked bool) error {
	r, err := newRange(first, last)
	if err != nil {
		return err
	}
	f.m.Lock()
	addRange(f.tree, r, blocked)
	f.m.Unlock()
	return nil
}

func newRange(first, last netip.Addr) (Range, error) {
	first, last = first.Unmap(), last.Unmap()
	if !first.IsValid() || !last.IsValid() {
		return Range{}, fmt.Errorf("invalid range: %s - %s", first, last)
	}
	if first.Is4() != last.Is4() {
		return Range{}, errMixedFamily
	}
	if last.Less(first) {
		first, last = last, first
	}
	return Range{First: first, Last: last}, nil
}

func addRange(tree *btree.BTreeG[Range], r Range, blocked bool) {
	var overlapping []Range
	// lasts are ordered like firsts because ranges are disjoint
	tree.DescendLessOrEqual(Range{First: r.Last}, func(o Range) bool {
		if o.Last.Less(r.First) {
			return false
		}
		overlapping = append(overlapping, o)
		return true
	})
	for _, o := range overlapping {
		tree.Delete(o)
		if o.First.Less(r.First) {
			tree.ReplaceOrInsert(Range{First: o.First, Last: r.First.Prev()})
		}
		if r.Last.Less(o.Last) {
			tree.ReplaceOrInsert(Range{First: r.Last.Next(), Last: o.Last})
		}
	}
	if blocked {
		tree.ReplaceOrInsert(r)
	}
}

// Reload replaces all rules with the ones read from r and returns the number of rules read.
// Each line is a CIDR block, a single address or a "first - last" range. Lines starting with '#' are skipped.
func (f *Filter) Reload(r io.Reader) (int, error) {
	tree := btree.NewG[Range](8, less)
	var n int
	var hasError bool
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		l := bytes.TrimSpace(scanner.Bytes())
		if len(l) == 0 || l[0] == '#' {
			continue
		}
		rng, err := parseLine(string(l))
		if err != nil {
			hasError = true
			if f.logger != nil {
				f.logger("cannot parse ip filter line (%q): %q", string(l), err.Error())
			}
			continue
		}
		addRange(tree, rng, true)
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	if n == 0 && hasError {
		// At least one line must be correct before the stream is considered decoded.
		return 0, errors.New("no valid rules")
	}
	f.m.Lock()
	f.tree = tree
	f.m.Unlock()
	return n, nil
}

func parseLine(s string) (Range, error) {
	if a, b, ok := strings.Cut(s, "-"); ok {
		first, err := netip.ParseAddr(strings.TrimSpace(a))
		if err != nil {
			return Range{}, err
		}
		last, err := netip.ParseAddr(strings.TrimSpace(b))
		if err != nil {
			return Range{}, err
		}
		return newRange(first, last)
	}
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return Range{}, err
		}
		return prefixRange(p), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return Range{}, err
	}
	return newRange(addr, addr)
}

func prefixRange(p netip.Prefix) Range {
	p = p.Masked()
	b := p.Addr().AsSlice()
	for i := p.Bits(); i < len(b)*8; i++ {
		b[i/8] |= 1 << (7 - i%8)
	}
	last, _ := netip.AddrFromSlice(b)
	return Range{First: p.Addr().Unmap(), Last: last.Unmap()}
}
