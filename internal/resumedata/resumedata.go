// Package resumedata converts the mutable state of a torrent to and from resume blobs.
package resumedata

import (
	"fmt"
	"net/netip"

	"github.com/Falcosc/libtorrent/bencode"
	"github.com/Falcosc/libtorrent/internal/tracker"
	"github.com/Falcosc/libtorrent/metainfo"
	zbencode "github.com/zeebo/bencode"
)

// FileFormat is the value of the "file-format" key.
const FileFormat = "libtorrent resume file"

// FileVersion is written to "file-version".
const FileVersion = 1

// Data is the content of a resume blob.
type Data struct {
	InfoHash        [20]byte
	Name            string
	SavePath        string
	Peers           []netip.AddrPort
	BannedPeers     []netip.AddrPort
	FilePriorities  []int
	PiecePriorities []int
	// Pieces has one element per piece, true if the piece is complete.
	Pieces    []bool
	Trackers  [][]string
	URLSeeds  []string
	HTTPSeeds []string

	TotalUploaded   int64
	TotalDownloaded int64

	// Durations in seconds.
	ActiveTime   int64
	SeedingTime  int64
	FinishedTime int64

	// Unix timestamps.
	AddedTime        int64
	CompletedTime    int64
	LastSeenComplete int64
	LastUpload       int64
	LastDownload     int64

	Paused bool

	// InfoBytes is the bencoded info dictionary, if known.
	InfoBytes []byte
}

// Marshal returns the bencoded resume blob for d.
func Marshal(d *Data) ([]byte, error) {
	v4, v6 := tracker.EncodePeersCompact(d.Peers)
	b4, b6 := tracker.EncodePeersCompact(d.BannedPeers)
	m := bencode.Dict{
		"file-format":        bencode.Bytes(FileFormat),
		"file-version":       bencode.Int(FileVersion),
		"info-hash":          bencode.Bytes(d.InfoHash[:]),
		"name":               bencode.Bytes(d.Name),
		"save_path":          bencode.Bytes(d.SavePath),
		"peers":              bencode.Bytes(v4),
		"peers6":             bencode.Bytes(v6),
		"banned_peers":       bencode.Bytes(b4),
		"banned_peers6":      bencode.Bytes(b6),
		"file_priority":      intList(d.FilePriorities),
		"piece_priority":     byteString(d.PiecePriorities),
		"pieces":             havePieces(d.Pieces),
		"trackers":           stringLists(d.Trackers),
		"url-list":           stringList(d.URLSeeds),
		"httpseeds":          stringList(d.HTTPSeeds),
		"total_uploaded":     bencode.Int(d.TotalUploaded),
		"total_downloaded":   bencode.Int(d.TotalDownloaded),
		"active_time":        bencode.Int(d.ActiveTime),
		"seeding_time":       bencode.Int(d.SeedingTime),
		"finished_time":      bencode.Int(d.FinishedTime),
		"added_time":         bencode.Int(d.AddedTime),
		"completed_time":     bencode.Int(d.CompletedTime),
		"last_seen_complete": bencode.Int(d.LastSeenComplete),
		"last_upload":        bencode.Int(d.LastUpload),
		"last_download":      bencode.Int(d.LastDownload),
		"paused":             boolInt(d.Paused),
	}
	if len(d.InfoBytes) > 0 {
		m["info"] = bencode.Raw(d.InfoBytes)
	}
	return bencode.Encode(m)
}

// Unmarshal parses a resume blob. Unknown keys are ignored.
func Unmarshal(b []byte) (*Data, error) {
	v, err := bencode.Decode(b)
	if err != nil {
		return nil, err
	}
	m, ok := v.(bencode.Dict)
	if !ok {
		return nil, &bencode.SyntaxError{Msg: "resume data is not a dictionary"}
	}
	if ff, ok := m["file-format"]; ok {
		if s, ok := ff.(bencode.Bytes); !ok || string(s) != FileFormat {
			return nil, invalidField("file-format", "unsupported format")
		}
	}
	var d Data
	ih, ok := m["info-hash"]
	if !ok {
		return nil, missingField("info-hash")
	}
	ihb, ok := ih.(bencode.Bytes)
	if !ok || len(ihb) != 20 {
		return nil, invalidField("info-hash", "must be a 20 byte string")
	}
	copy(d.InfoHash[:], ihb)

	sp, ok := m["save_path"]
	if !ok {
		return nil, missingField("save_path")
	}
	spb, ok := sp.(bencode.Bytes)
	if !ok {
		return nil, invalidField("save_path", "not a string")
	}
	d.SavePath = string(spb)

	r := reader{m: m}
	d.Name = r.string("name")
	d.Peers = r.peers("peers", "peers6")
	d.BannedPeers = r.peers("banned_peers", "banned_peers6")
	d.FilePriorities = r.intList("file_priority")
	d.PiecePriorities = r.byteString("piece_priority")
	d.Pieces = r.pieces("pieces")
	d.Trackers = r.stringLists("trackers")
	d.URLSeeds = r.stringList("url-list")
	d.HTTPSeeds = r.stringList("httpseeds")
	d.TotalUploaded = r.int("total_uploaded")
	d.TotalDownloaded = r.int("total_downloaded")
	d.ActiveTime = r.int("active_time")
	d.SeedingTime = r.int("seeding_time")
	d.FinishedTime = r.int("finished_time")
	d.AddedTime = r.int("added_time")
	d.CompletedTime = r.int("completed_time")
	d.LastSeenComplete = r.int("last_seen_complete")
	d.LastUpload = r.int("last_upload")
	d.LastDownload = r.int("last_download")
	d.Paused = r.int("paused") != 0
	if _, ok := m["info"]; ok && r.err == nil {
		// keep the exact bytes so the info hash can be verified
		var raw struct {
			Info zbencode.RawMessage `bencode:"info"`
		}
		if err = zbencode.DecodeBytes(b, &raw); err != nil {
			return nil, &bencode.SyntaxError{Msg: err.Error()}
		}
		d.InfoBytes = raw.Info
	}
	if r.err != nil {
		return nil, r.err
	}
	return &d, nil
}

func missingField(key string) error {
	return fmt.Errorf("%w: %q", metainfo.ErrMissingField, key)
}

func invalidField(key, reason string) error {
	return fmt.Errorf("%w: %q: %s", metainfo.ErrInvalidField, key, reason)
}
