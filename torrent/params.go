package torrent

import (
	"fmt"
	"net/netip"
	"sort"
	"time"

	"github.com/Falcosc/libtorrent/bencode"
	"github.com/Falcosc/libtorrent/internal/magnet"
	"github.com/Falcosc/libtorrent/internal/piecepriority"
	"github.com/Falcosc/libtorrent/internal/resumedata"
	"github.com/Falcosc/libtorrent/metainfo"
)

// AddTorrentParams describes a torrent to add to a Session.
// Either TorrentInfo or InfoHash must be set.
type AddTorrentParams struct {
	// TorrentInfo is the parsed torrent file. It is shared, not copied.
	TorrentInfo *metainfo.MetaInfo
	// InfoHash must match TorrentInfo if both are set.
	InfoHash InfoHash
	// Name is used until the metadata is known.
	Name string
	// SavePath defaults to Config.DataDir.
	SavePath string

	Trackers  [][]string
	URLSeeds  []string
	HTTPSeeds []string
	// DHTNodes are host:port pairs added to the DHT routing table.
	DHTNodes    []string
	Peers       []netip.AddrPort
	BannedPeers []netip.AddrPort

	// FilePriorities shorter than the file list are padded with the default priority.
	FilePriorities []int
	// PiecePriorities must have one entry per piece.
	// Without TorrentInfo they are kept until the metadata arrives and dropped if the length does not match.
	PiecePriorities []int
	// HavePieces must have one entry per piece. It is kept like PiecePriorities without TorrentInfo.
	HavePieces []bool

	Paused bool

	TotalUploaded   int64
	TotalDownloaded int64
	ActiveTime      time.Duration
	SeedingTime     time.Duration
	FinishedTime    time.Duration

	AddedTime        time.Time
	CompletedTime    time.Time
	LastSeenComplete time.Time
	LastUpload       time.Time
	LastDownload     time.Time
}

func (p *AddTorrentParams) infoHash() InfoHash {
	if p.TorrentInfo != nil {
		return p.TorrentInfo.InfoHash()
	}
	return p.InfoHash
}

// validate checks the params without changing anything.
func (p *AddTorrentParams) validate() error {
	if p.TorrentInfo == nil && p.InfoHash.IsZero() {
		return newInputError(fmt.Errorf("%w: torrent info or info hash is required", ErrMissingField))
	}
	if p.TorrentInfo != nil && !p.InfoHash.IsZero() && p.InfoHash != p.TorrentInfo.InfoHash() {
		return ErrHashMismatch
	}
	if len(p.FilePriorities) > metainfo.MaxFiles {
		return newInputError(fmt.Errorf("%w: %d file priorities", ErrIndexOutOfRange, len(p.FilePriorities)))
	}
	for i, prio := range p.FilePriorities {
		if !piecepriority.Valid(prio) {
			return newInputError(fmt.Errorf("%w: file %d: %d", ErrInvalidPriority, i, prio))
		}
		if p.TorrentInfo != nil && i >= p.TorrentInfo.NumFiles() {
			return newInputError(fmt.Errorf("%w: file priority %d of %d", ErrIndexOutOfRange, i, p.TorrentInfo.NumFiles()))
		}
	}
	for i, prio := range p.PiecePriorities {
		if !piecepriority.Valid(prio) {
			return newInputError(fmt.Errorf("%w: piece %d: %d", ErrInvalidPriority, i, prio))
		}
	}
	if p.TorrentInfo == nil {
		return nil
	}
	numPieces := int(p.TorrentInfo.Info.NumPieces)
	if len(p.PiecePriorities) > 0 && len(p.PiecePriorities) != numPieces {
		return newInputError(fmt.Errorf("%w: piece priorities: %d for %d pieces", ErrInvalidField, len(p.PiecePriorities), numPieces))
	}
	if len(p.HavePieces) > 0 && len(p.HavePieces) != numPieces {
		return newInputError(fmt.Errorf("%w: pieces: %d for %d pieces", ErrInvalidField, len(p.HavePieces), numPieces))
	}
	return nil
}

// ReadResumeData returns the params to add the torrent described by a resume blob.
// It does not add anything to a session.
func ReadResumeData(b []byte) (*AddTorrentParams, error) {
	d, err := resumedata.Unmarshal(b)
	if err != nil {
		return nil, err
	}
	p := &AddTorrentParams{
		InfoHash:         d.InfoHash,
		Name:             d.Name,
		SavePath:         d.SavePath,
		Trackers:         d.Trackers,
		URLSeeds:         d.URLSeeds,
		HTTPSeeds:        d.HTTPSeeds,
		Peers:            d.Peers,
		BannedPeers:      d.BannedPeers,
		FilePriorities:   d.FilePriorities,
		PiecePriorities:  d.PiecePriorities,
		HavePieces:       d.Pieces,
		Paused:           d.Paused,
		TotalUploaded:    d.TotalUploaded,
		TotalDownloaded:  d.TotalDownloaded,
		ActiveTime:       time.Duration(d.ActiveTime) * time.Second,
		SeedingTime:      time.Duration(d.SeedingTime) * time.Second,
		FinishedTime:     time.Duration(d.FinishedTime) * time.Second,
		AddedTime:        unixTime(d.AddedTime),
		CompletedTime:    unixTime(d.CompletedTime),
		LastSeenComplete: unixTime(d.LastSeenComplete),
		LastUpload:       unixTime(d.LastUpload),
		LastDownload:     unixTime(d.LastDownload),
	}
	if len(d.InfoBytes) > 0 {
		mi, err := metainfo.NewFromValue(metadataDict(d.InfoBytes))
		if err != nil {
			return nil, err
		}
		if mi.InfoHash() != d.InfoHash {
			return nil, ErrHashMismatch
		}
		p.TorrentInfo = mi
	}
	return p, nil
}

// ParseMagnetURI returns the params to add the torrent of a magnet link.
func ParseMagnetURI(uri string) (*AddTorrentParams, error) {
	m, err := magnet.New(uri)
	if err != nil {
		return nil, newInputError(err)
	}
	p := &AddTorrentParams{
		InfoHash: m.InfoHash,
		Name:     m.Name,
		Trackers: m.Trackers,
		URLSeeds: m.WebSeeds,
	}
	for _, s := range m.Peers {
		addr, err := netip.ParseAddrPort(s)
		if err != nil {
			continue
		}
		p.Peers = append(p.Peers, addr)
	}
	if len(m.SelectOnly) > 0 {
		var last int
		for _, r := range m.SelectOnly {
			if r.Last > last {
				last = r.Last
			}
		}
		p.FilePriorities = piecepriority.Fill(last+1, piecepriority.Skip)
		ranges := append([]magnet.IndexRange(nil), m.SelectOnly...)
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].First < ranges[j].First })
		// each index is set once even if ranges overlap
		var next int
		for _, r := range ranges {
			for i := max(r.First, next); i <= r.Last; i++ {
				p.FilePriorities[i] = piecepriority.Default
			}
			next = max(next, r.Last+1)
		}
	}
	return p, nil
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func unixSeconds(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// metadataDict wraps raw info bytes in a torrent file dictionary.
func metadataDict(info []byte) bencode.Dict {
	return bencode.Dict{"info": bencode.Raw(info)}
}
