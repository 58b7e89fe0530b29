// Package magnet provides support for parsing magnet links.
package magnet

import (
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Falcosc/libtorrent/metainfo"
	"github.com/multiformats/go-multihash"
)

// Magnet link contains the information to download torrent metadata from network.
type Magnet struct {
	InfoHash [20]byte
	Name     string
	Trackers [][]string
	Peers    []string
	WebSeeds []string
	// SelectOnly lists the ranges of file indexes to download in the order they appear. Empty means all files.
	SelectOnly []IndexRange
}

// IndexRange is an inclusive range of file indexes.
type IndexRange struct {
	First, Last int
}

// New parses the string and returns new Magnet.
func New(s string) (*Magnet, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "magnet" {
		return nil, errors.New("not a magnet link")
	}

	params := u.Query()

	xts := params["xt"]
	if len(xts) == 0 {
		return nil, errors.New("missing xt param")
	}

	var magnet Magnet
	magnet.InfoHash, err = infoHashString(xts[0])
	if err != nil {
		return nil, err
	}

	if names := params["dn"]; len(names) != 0 {
		magnet.Name = names[0]
	}

	var tiers []trackerTier
	for key, tier := range params {
		if key == "tr" {
			for i, tr := range tier {
				tiers = append(tiers, trackerTier{trackers: []string{tr}, index: i - len(tier)})
			}
		} else if strings.HasPrefix(key, "tr.") {
			index, err := strconv.Atoi(key[3:])
			if err == nil && index >= 0 {
				tiers = append(tiers, trackerTier{trackers: tier, index: index})
			}
		}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].index < tiers[j].index })
	for _, ti := range tiers {
		magnet.Trackers = append(magnet.Trackers, ti.trackers)
	}

	magnet.Peers = params["x.pe"]
	magnet.WebSeeds = params["ws"]

	for _, so := range params["so"] {
		ranges, err := parseSelectOnly(so)
		if err != nil {
			return nil, err
		}
		magnet.SelectOnly = append(magnet.SelectOnly, ranges...)
	}
	return &magnet, nil
}

// parseSelectOnly parses a list like "0,2,4-6".
func parseSelectOnly(s string) ([]IndexRange, error) {
	var ret []IndexRange
	for _, part := range strings.Split(s, ",") {
		first, last, isRange := strings.Cut(part, "-")
		begin, err := strconv.Atoi(first)
		if err != nil || begin < 0 {
			return nil, errors.New("invalid so param: " + s)
		}
		end := begin
		if isRange {
			end, err = strconv.Atoi(last)
			if err != nil || end < begin {
				return nil, errors.New("invalid so param: " + s)
			}
		}
		if end >= metainfo.MaxFiles {
			return nil, fmt.Errorf("%w: so param: file %d", metainfo.ErrIndexOutOfRange, end)
		}
		ret = append(ret, IndexRange{First: begin, Last: end})
	}
	return ret, nil
}

func (m *Magnet) String() string {
	var b strings.Builder
	b.Grow(2048)
	b.WriteString("magnet:?xt=urn:btih:")
	b.WriteString(hex.EncodeToString(m.InfoHash[:]))
	if m.Name != "" {
		b.WriteString("&dn=")
		b.WriteString(url.QueryEscape(m.Name))
	}
	for i, ti := range m.Trackers {
		if len(ti) == 1 {
			b.WriteString("&tr=")
			b.WriteString(url.QueryEscape(ti[0]))
		} else {
			for _, t := range ti {
				b.WriteString("&tr.")
				b.WriteString(strconv.Itoa(i))
				b.WriteString("=")
				b.WriteString(url.QueryEscape(t))
			}
		}
	}
	for _, ws := range m.WebSeeds {
		b.WriteString("&ws=")
		b.WriteString(url.QueryEscape(ws))
	}
	for _, p := range m.Peers {
		b.WriteString("&x.pe=")
		b.WriteString(p)
	}
	for i, r := range m.SelectOnly {
		if i == 0 {
			b.WriteString("&so=")
		} else {
			b.WriteString(",")
		}
		b.WriteString(strconv.Itoa(r.First))
		if r.Last != r.First {
			b.WriteString("-")
			b.WriteString(strconv.Itoa(r.Last))
		}
	}
	return b.String()
}

type trackerTier struct {
	trackers []string
	index    int
}

// infoHashString returns a new info hash value from a string.
// btih hashes must be 40 (hex encoded) or 32 (base32 encoded) characters.
// btmh hashes must be SHA-1 or SHA2-256 multihashes, the latter is truncated to 20 bytes.
func infoHashString(xt string) ([20]byte, error) {
	var ih [20]byte
	var b []byte
	var err error
	switch {
	case strings.HasPrefix(xt, "urn:btih:"):
		xt = xt[9:]
		switch len(xt) {
		case 40:
			b, err = hex.DecodeString(xt)
		case 32:
			b, err = base32.StdEncoding.DecodeString(strings.ToUpper(xt))
		default:
			return ih, errors.New("info hash must be 32 or 40 characters")
		}
		if err != nil {
			return ih, err
		}
	case strings.HasPrefix(xt, "urn:btmh:"):
		mh, err := multihash.FromHexString(xt[9:])
		if err != nil {
			return ih, err
		}
		dec, err := multihash.Decode(mh)
		if err != nil {
			return ih, err
		}
		switch dec.Code {
		case multihash.SHA1:
			b = dec.Digest
		case multihash.SHA2_256:
			b = dec.Digest[:20]
		default:
			return ih, errors.New("unsupported multihash: " + dec.Name)
		}
		if len(b) != 20 {
			return ih, errors.New("invalid multihash (len != 20)")
		}
	default:
		return ih, errors.New("invalid xt param: must start with \"urn:btih:\" or \"urn:btmh\"")
	}
	copy(ih[:], b)
	return ih, nil
}
