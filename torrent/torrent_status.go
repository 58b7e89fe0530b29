package torrent

import (
	"reflect"
	"time"
)

// Status is a snapshot of the state of a torrent.
// Durations are updated on state changes only, so two snapshots taken without a change in between are equal.
type Status struct {
	InfoHash    InfoHash
	Name        string
	SavePath    string
	State       State
	Paused      bool
	Error       error
	HasMetadata bool

	// Pieces has one element per piece, true if the piece is complete.
	Pieces    []bool
	NumPieces uint32
	// Progress is the ratio of completed bytes to total bytes in [0, 1].
	Progress float64
	// DistributedCopies is the number of complete copies among connected peers, -1 without metadata.
	DistributedCopies float64

	TotalUploaded   int64
	TotalDownloaded int64
	NumPeers        int
	NumKnownPeers   int

	AddedTime        time.Time
	CompletedTime    time.Time
	LastSeenComplete time.Time
	LastUpload       time.Time
	LastDownload     time.Time
	NextAnnounce     time.Time

	ActiveDuration   time.Duration
	SeedingDuration  time.Duration
	FinishedDuration time.Duration
}

// Equal reports whether two snapshots describe the same state.
func (s Status) Equal(o Status) bool {
	return reflect.DeepEqual(s, o)
}

func (t *torrent) status() Status {
	t.m.RLock()
	defer t.m.RUnlock()
	s := Status{
		InfoHash:          t.infoHash,
		Name:              t.name,
		SavePath:          t.savePath,
		State:             t.state,
		Paused:            t.paused,
		Error:             t.err,
		HasMetadata:       t.info != nil,
		DistributedCopies: -1,
		TotalUploaded:     t.uploaded,
		TotalDownloaded:   t.downloaded,
		NumPeers:          len(t.connected),
		NumKnownPeers:     t.peers.Len(),
		AddedTime:         t.addedTime,
		CompletedTime:     t.completedTime,
		LastSeenComplete:  t.lastSeenComplete,
		LastUpload:        t.lastUpload,
		LastDownload:      t.lastDownload,
		NextAnnounce:      t.nextAnnounce,
		ActiveDuration:    t.activeTime,
		SeedingDuration:   t.seedingTime,
		FinishedDuration:  t.finishedTime,
	}
	if t.info == nil {
		return s
	}
	info := t.info.Info
	s.Pieces = t.bitfield.Bools()
	s.NumPieces = info.NumPieces
	s.Progress = t.progress()
	lowest, above := t.availability()
	if info.NumPieces > 0 {
		s.DistributedCopies = float64(lowest) + float64(above)/float64(info.NumPieces)
	}
	return s
}

func (t *torrent) progress() float64 {
	info := t.info.Info
	if info.TotalLength == 0 {
		return 1
	}
	var done int64
	for i := uint32(0); i < info.NumPieces; i++ {
		if t.bitfield.Test(i) {
			done += int64(info.PieceSize(i))
		}
	}
	return float64(done) / float64(info.TotalLength)
}
