package torrent

import (
	"time"

	"github.com/Falcosc/libtorrent/internal/resumedata"
)

// resumeData returns the blob describing the current state of the torrent.
func (t *torrent) resumeData() ([]byte, error) {
	t.m.RLock()
	if t.removed {
		t.m.RUnlock()
		return nil, ErrTorrentRemoved
	}
	d := t.resumeDataNoLock(time.Now())
	t.m.RUnlock()
	return resumedata.Marshal(d)
}

func (t *torrent) resumeDataNoLock(now time.Time) *resumedata.Data {
	active, seeding, finished := t.durations(now)
	d := &resumedata.Data{
		InfoHash:         t.infoHash,
		Name:             t.name,
		SavePath:         t.savePath,
		Peers:            t.peers.List(),
		BannedPeers:      t.banned.List(),
		FilePriorities:   append([]int(nil), t.filePriorities...),
		Trackers:         copyTiers(t.trackers),
		URLSeeds:         append([]string(nil), t.urlSeeds...),
		HTTPSeeds:        append([]string(nil), t.httpSeeds...),
		TotalUploaded:    t.uploaded,
		TotalDownloaded:  t.downloaded,
		ActiveTime:       int64(active / time.Second),
		SeedingTime:      int64(seeding / time.Second),
		FinishedTime:     int64(finished / time.Second),
		AddedTime:        unixSeconds(t.addedTime),
		CompletedTime:    unixSeconds(t.completedTime),
		LastSeenComplete: unixSeconds(t.lastSeenComplete),
		LastUpload:       unixSeconds(t.lastUpload),
		LastDownload:     unixSeconds(t.lastDownload),
		Paused:           t.paused,
	}
	if t.info != nil {
		d.PiecePriorities = append([]int(nil), t.piecePriorities...)
		d.Pieces = t.bitfield.Bools()
		d.InfoBytes = t.info.Metadata()
	} else {
		d.PiecePriorities = append([]int(nil), t.resumedPiecePriorities...)
		d.Pieces = append([]bool(nil), t.resumedPieces...)
	}
	return d
}

func (t *torrent) saveResumeData() {
	started := t.session.goWorker(func(stopC chan struct{}) {
		b, err := t.resumeData()
		base := t.newAlert()
		if err != nil {
			t.session.post(&SaveResumeDataFailedAlert{TorrentAlert: base, Err: err})
			return
		}
		t.session.post(&SaveResumeDataAlert{TorrentAlert: base, Data: b})
	})
	if !started {
		t.session.post(&SaveResumeDataFailedAlert{TorrentAlert: t.newAlert(), Err: ErrSessionClosed})
	}
}
