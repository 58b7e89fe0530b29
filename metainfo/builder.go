package metainfo

import (
	"time"

	"github.com/Falcosc/libtorrent/bencode"
)

// WebSeedType tells in which key of the torrent file a web seed is stored.
type WebSeedType int

const (
	// URLSeed is a BEP 19 seed stored in "url-list".
	URLSeed WebSeedType = iota
	// HTTPSeed is a BEP 17 seed stored in "httpseeds".
	HTTPSeed
)

func (t WebSeedType) String() string {
	switch t {
	case URLSeed:
		return "url-list"
	case HTTPSeed:
		return "httpseeds"
	default:
		return "unknown"
	}
}

// WebSeed is an HTTP source of torrent data.
type WebSeed struct {
	URL  string
	Auth string
	Type WebSeedType
}

// Builder is the mutable variant of MetaInfo used for creating torrent files.
// A Builder created from an existing torrent generates the same bytes until one of its setters is called.
type Builder struct {
	outer    bencode.Dict
	webSeeds []WebSeed
	trackers [][]string
}

// NewBuilder returns a builder initialized with every key of mi.
func NewBuilder(mi *MetaInfo) *Builder {
	b := &Builder{
		outer:    mi.Generate(),
		webSeeds: mi.WebSeeds(),
	}
	for _, tier := range mi.AnnounceList {
		b.trackers = append(b.trackers, append([]string(nil), tier...))
	}
	return b
}

// NewEmptyBuilder returns a builder for a new torrent file around info.
func NewEmptyBuilder(info *Info) *Builder {
	return &Builder{
		outer: bencode.Dict{"info": bencode.Raw(info.Bytes)},
	}
}

// WebSeeds returns the web seeds in the order they were set.
func (b *Builder) WebSeeds() []WebSeed {
	return append([]WebSeed(nil), b.webSeeds...)
}

// SetWebSeeds replaces both "url-list" and "httpseeds".
func (b *Builder) SetWebSeeds(seeds []WebSeed) {
	b.webSeeds = append([]WebSeed(nil), seeds...)
	var urls, https bencode.List
	for _, s := range seeds {
		switch s.Type {
		case HTTPSeed:
			https = append(https, bencode.Bytes(s.URL))
		default:
			urls = append(urls, bencode.Bytes(s.URL))
		}
	}
	b.setList("url-list", urls)
	b.setList("httpseeds", https)
}

func (b *Builder) setList(key string, l bencode.List) {
	if len(l) == 0 {
		delete(b.outer, key)
		return
	}
	b.outer[key] = l
}

// AddTracker adds url to the given tier. Tiers past the end are appended.
func (b *Builder) AddTracker(url string, tier int) {
	for len(b.trackers) <= tier {
		b.trackers = append(b.trackers, nil)
	}
	b.trackers[tier] = append(b.trackers[tier], url)

	var al bencode.List
	for _, t := range b.trackers {
		if len(t) == 0 {
			continue
		}
		var l bencode.List
		for _, u := range t {
			l = append(l, bencode.Bytes(u))
		}
		al = append(al, l)
	}
	// announce is the first tracker of the first non-empty tier
	b.outer["announce"] = al[0].(bencode.List)[0]
	b.outer["announce-list"] = al
}

// SetComment sets the "comment" key. An empty string removes it.
func (b *Builder) SetComment(s string) {
	b.setString("comment", s)
}

// SetCreator sets the "created by" key. An empty string removes it.
func (b *Builder) SetCreator(s string) {
	b.setString("created by", s)
}

// SetCreationDate sets the "creation date" key. A zero time removes it.
func (b *Builder) SetCreationDate(t time.Time) {
	if t.IsZero() {
		delete(b.outer, "creation date")
		return
	}
	b.outer["creation date"] = bencode.Int(t.Unix())
}

func (b *Builder) setString(key, s string) {
	if s == "" {
		delete(b.outer, key)
		return
	}
	b.outer[key] = bencode.Bytes(s)
}

// Generate returns the torrent file dictionary.
func (b *Builder) Generate() bencode.Dict {
	d := make(bencode.Dict, len(b.outer))
	for k, v := range b.outer {
		d[k] = v
	}
	return d
}

// Freeze returns the immutable torrent for the current state of the builder.
// Web seed credentials are not part of the torrent file and are not kept.
func (b *Builder) Freeze() (*MetaInfo, error) {
	return NewFromValue(b.Generate())
}
