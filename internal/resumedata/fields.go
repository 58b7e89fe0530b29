package resumedata

import (
	"net/netip"

	"github.com/Falcosc/libtorrent/bencode"
	"github.com/Falcosc/libtorrent/internal/tracker"
)

func boolInt(b bool) bencode.Int {
	if b {
		return 1
	}
	return 0
}

func intList(l []int) bencode.List {
	ret := make(bencode.List, len(l))
	for i, v := range l {
		ret[i] = bencode.Int(v)
	}
	return ret
}

// byteString stores small integers one per byte.
func byteString(l []int) bencode.Bytes {
	ret := make(bencode.Bytes, len(l))
	for i, v := range l {
		ret[i] = byte(v)
	}
	return ret
}

func havePieces(l []bool) bencode.Bytes {
	ret := make(bencode.Bytes, len(l))
	for i, ok := range l {
		if ok {
			ret[i] = 1
		}
	}
	return ret
}

func stringList(l []string) bencode.List {
	ret := make(bencode.List, len(l))
	for i, s := range l {
		ret[i] = bencode.Bytes(s)
	}
	return ret
}

func stringLists(l [][]string) bencode.List {
	ret := make(bencode.List, len(l))
	for i, tier := range l {
		ret[i] = stringList(tier)
	}
	return ret
}

// reader remembers the first type error so fields can be read in sequence.
type reader struct {
	m   bencode.Dict
	err error
}

func (r *reader) get(key string) (bencode.Value, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.m[key]
	return v, ok
}

func (r *reader) int(key string) int64 {
	v, ok := r.get(key)
	if !ok {
		return 0
	}
	i, ok := v.(bencode.Int)
	if !ok {
		r.err = invalidField(key, "not an integer")
	}
	return int64(i)
}

func (r *reader) bytes(key string) []byte {
	v, ok := r.get(key)
	if !ok {
		return nil
	}
	b, ok := v.(bencode.Bytes)
	if !ok {
		r.err = invalidField(key, "not a string")
	}
	return b
}

func (r *reader) string(key string) string {
	return string(r.bytes(key))
}

func (r *reader) peers(key4, key6 string) []netip.AddrPort {
	var ret []netip.AddrPort
	if b := r.bytes(key4); len(b) > 0 {
		addrs, err := tracker.DecodePeersCompact(b)
		if err != nil {
			r.err = &bencode.SyntaxError{Msg: key4 + ": packed peers length is not a multiple of 6"}
			return nil
		}
		ret = append(ret, addrs...)
	}
	if b := r.bytes(key6); len(b) > 0 {
		addrs, err := tracker.DecodePeers6Compact(b)
		if err != nil {
			r.err = &bencode.SyntaxError{Msg: key6 + ": packed peers length is not a multiple of 18"}
			return nil
		}
		ret = append(ret, addrs...)
	}
	return ret
}

func (r *reader) intList(key string) []int {
	v, ok := r.get(key)
	if !ok {
		return nil
	}
	l, ok := v.(bencode.List)
	if !ok {
		r.err = invalidField(key, "not a list")
		return nil
	}
	if len(l) == 0 {
		return nil
	}
	ret := make([]int, len(l))
	for i, e := range l {
		n, ok := e.(bencode.Int)
		if !ok {
			r.err = invalidField(key, "not a list of integers")
			return nil
		}
		ret[i] = int(n)
	}
	return ret
}

func (r *reader) byteString(key string) []int {
	b := r.bytes(key)
	if len(b) == 0 {
		return nil
	}
	ret := make([]int, len(b))
	for i, c := range b {
		ret[i] = int(c)
	}
	return ret
}

func (r *reader) pieces(key string) []bool {
	b := r.bytes(key)
	if len(b) == 0 {
		return nil
	}
	ret := make([]bool, len(b))
	for i, c := range b {
		ret[i] = c&1 != 0
	}
	return ret
}

func (r *reader) stringList(key string) []string {
	v, ok := r.get(key)
	if !ok {
		return nil
	}
	return r.strings(key, v)
}

func (r *reader) strings(key string, v bencode.Value) []string {
	l, ok := v.(bencode.List)
	if !ok {
		r.err = invalidField(key, "not a list")
		return nil
	}
	if len(l) == 0 {
		return nil
	}
	ret := make([]string, 0, len(l))
	for _, e := range l {
		s, ok := e.(bencode.Bytes)
		if !ok {
			r.err = invalidField(key, "not a list of strings")
			return nil
		}
		ret = append(ret, string(s))
	}
	return ret
}

func (r *reader) stringLists(key string) [][]string {
	v, ok := r.get(key)
	if !ok {
		return nil
	}
	l, ok := v.(bencode.List)
	if !ok {
		r.err = invalidField(key, "not a list")
		return nil
	}
	if len(l) == 0 {
		return nil
	}
	ret := make([][]string, 0, len(l))
	for _, tier := range l {
		s := r.strings(key, tier)
		if r.err != nil {
			return nil
		}
		ret = append(ret, s)
	}
	return ret
}
