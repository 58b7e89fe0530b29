package torrent

import (
	"time"
)

// loadExistingTorrents adds the torrents saved in the database.
func (s *Session) loadExistingTorrents() {
	ids, err := s.resumer.List()
	if err != nil {
		s.log.Errorln("cannot list saved torrents:", err.Error())
		return
	}
	var loaded int
	for _, id := range ids {
		e, err := s.resumer.Read(id)
		if err != nil {
			s.log.Error(err)
			continue
		}
		p, err := ReadResumeData(e.Blob)
		if err != nil {
			s.log.Errorf("cannot read resume data of torrent %s: %s", id, err)
			continue
		}
		if p.InfoHash != e.InfoHash {
			s.log.Errorf("cannot load torrent %s: %s", id, ErrHashMismatch)
			continue
		}
		t, err := s.addTorrent(p, id, false)
		if err != nil {
			s.log.Errorf("cannot load torrent %s: %s", id, err)
			continue
		}
		s.log.Debugf("loaded existing torrent: #%s %s", id, t.Name())
		loaded++
	}
	s.log.Infof("loaded %d existing torrents", loaded)
}

func (s *Session) resumeWriteLoop(stopC chan struct{}) {
	ticker := time.NewTicker(s.config.ResumeWriteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.writeResumeData(s.torrentList())
		case <-stopC:
			return
		}
	}
}

// writeResumeData saves the resume blobs of torrents to the database.
func (s *Session) writeResumeData(torrents []*torrent) {
	for _, t := range torrents {
		b, err := t.resumeData()
		if err == ErrTorrentRemoved {
			continue
		}
		if err == nil {
			err = s.resumer.Write(t.id, t.infoHash, b)
		}
		if err != nil {
			s.stats.Inc("disk.num_resume_write_failures", 1)
			t.log.Errorln("cannot write resume data:", err.Error())
			continue
		}
		s.stats.Inc("disk.num_resume_writes", 1)
	}
}
