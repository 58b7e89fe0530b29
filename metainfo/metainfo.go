// Package metainfo support for reading and writing torrent files.
package metainfo

import (
	"io"
	"strings"
	"time"

	"github.com/Falcosc/libtorrent/bencode"
	zbencode "github.com/zeebo/bencode"
)

// MetaInfo file dictionary.
// A MetaInfo is never modified after it is returned. Use Builder to derive a changed torrent.
type MetaInfo struct {
	Info         *Info
	AnnounceList [][]string
	URLList      URLList
	HTTPSeeds    URLList
	Comment      string
	CreatedBy    string
	CreationDate time.Time

	// Top level keys of the original file with "info" replaced by the exact info bytes.
	outer bencode.Dict
}

type rawMetaInfo struct {
	Info         zbencode.RawMessage `bencode:"info"`
	Announce     zbencode.RawMessage `bencode:"announce"`
	AnnounceList zbencode.RawMessage `bencode:"announce-list"`
	URLList      zbencode.RawMessage `bencode:"url-list"`
	HTTPSeeds    zbencode.RawMessage `bencode:"httpseeds"`
	Comment      zbencode.RawMessage `bencode:"comment"`
	CreatedBy    zbencode.RawMessage `bencode:"created by"`
	CreationDate zbencode.RawMessage `bencode:"creation date"`
}

// New returns a torrent from bencoded stream.
// The caller is responsible for limiting the size of r.
func New(r io.Reader) (*MetaInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// NewFromValue returns a torrent from an already decoded dictionary.
func NewFromValue(v bencode.Value) (*MetaInfo, error) {
	b, err := bencode.Encode(v)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse validates b and returns the torrent it describes.
// Errors from the bencode decoder are returned unchanged.
func Parse(b []byte) (*MetaInfo, error) {
	v, err := bencode.Decode(b)
	if err != nil {
		return nil, err
	}
	outer, ok := v.(bencode.Dict)
	if !ok {
		return nil, invalidField("", "torrent is not a dictionary")
	}
	iv, ok := outer["info"]
	if !ok {
		return nil, missingField("info")
	}
	if _, ok = iv.(bencode.Dict); !ok {
		return nil, invalidField("info", "not a dictionary")
	}

	var t rawMetaInfo
	if err = zbencode.DecodeBytes(b, &t); err != nil {
		return nil, &bencode.SyntaxError{Msg: err.Error()}
	}
	info, err := NewInfo(t.Info)
	if err != nil {
		return nil, err
	}
	ret := &MetaInfo{
		Info:  info,
		outer: make(bencode.Dict, len(outer)),
	}
	for k, v := range outer {
		ret.outer[k] = v
	}
	ret.outer["info"] = bencode.Raw(info.Bytes)

	ret.AnnounceList = parseTrackers(t.Announce, t.AnnounceList)
	if len(t.URLList) > 0 {
		_ = ret.URLList.UnmarshalBencode(t.URLList)
	}
	if len(t.HTTPSeeds) > 0 {
		_ = ret.HTTPSeeds.UnmarshalBencode(t.HTTPSeeds)
	}
	if len(t.Comment) > 0 {
		_ = zbencode.DecodeBytes(t.Comment, &ret.Comment)
	}
	if len(t.CreatedBy) > 0 {
		_ = zbencode.DecodeBytes(t.CreatedBy, &ret.CreatedBy)
	}
	if len(t.CreationDate) > 0 {
		var sec int64
		if zbencode.DecodeBytes(t.CreationDate, &sec) == nil && sec > 0 {
			ret.CreationDate = time.Unix(sec, 0).UTC()
		}
	}
	return ret, nil
}

func parseTrackers(announce, announceList zbencode.RawMessage) [][]string {
	var ret [][]string
	if len(announceList) > 0 {
		var ll [][]string
		if zbencode.DecodeBytes(announceList, &ll) == nil {
			for _, tier := range ll {
				var ti []string
				for _, t := range tier {
					if isTrackerSupported(t) {
						ti = append(ti, t)
					}
				}
				if len(ti) > 0 {
					ret = append(ret, ti)
				}
			}
		}
	}
	if len(ret) == 0 && len(announce) > 0 {
		var s string
		if zbencode.DecodeBytes(announce, &s) == nil && isTrackerSupported(s) {
			ret = append(ret, []string{s})
		}
	}
	return ret
}

func isTrackerSupported(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "udp://")
}

// InfoHash returns the SHA-1 of the info dictionary.
func (m *MetaInfo) InfoHash() [20]byte {
	return m.Info.Hash
}

// Metadata returns the bencoded info dictionary exactly as it appeared in the torrent file.
func (m *MetaInfo) Metadata() []byte {
	return m.Info.Bytes
}

// HashForPiece returns the expected hash of the piece at index.
func (m *MetaInfo) HashForPiece(index uint32) ([20]byte, error) {
	return m.Info.HashForPiece(index)
}

// NumFiles returns the number of entries in the file list.
func (m *MetaInfo) NumFiles() int {
	return len(m.Info.Files)
}

// WebSeeds returns url seeds followed by http seeds.
func (m *MetaInfo) WebSeeds() []WebSeed {
	ret := make([]WebSeed, 0, len(m.URLList)+len(m.HTTPSeeds))
	for _, u := range m.URLList {
		ret = append(ret, WebSeed{URL: u, Type: URLSeed})
	}
	for _, u := range m.HTTPSeeds {
		ret = append(ret, WebSeed{URL: u, Type: HTTPSeed})
	}
	return ret
}

// Generate returns the torrent as a dictionary.
// Every top level key of the original file is kept and the info dictionary is emitted byte for byte.
func (m *MetaInfo) Generate() bencode.Dict {
	d := make(bencode.Dict, len(m.outer))
	for k, v := range m.outer {
		d[k] = v
	}
	return d
}

// Bytes returns the encoding of Generate.
func (m *MetaInfo) Bytes() ([]byte, error) {
	return bencode.Encode(m.Generate())
}
