package torrent

import (
	"encoding/base64"
	"io"
	"time"

	"github.com/Falcosc/libtorrent/metainfo"
	"github.com/gofrs/uuid"
)

// AddTorrent adds a torrent to the session and returns its handle.
// An AddTorrentAlert is posted whether or not the torrent is added.
func (s *Session) AddTorrent(p *AddTorrentParams) (*Torrent, error) {
	t, err := s.addTorrent(p, "", true)
	a := &AddTorrentAlert{alertBase: newAlertBase(), Params: p, Err: err}
	if t != nil {
		a.Handle = t.pub
	}
	s.post(a)
	if err != nil {
		return nil, err
	}
	return t.pub, nil
}

// AsyncAddTorrent adds the torrent in background. The result is posted as AddTorrentAlert.
func (s *Session) AsyncAddTorrent(p *AddTorrentParams) {
	started := s.goWorker(func(stopC chan struct{}) {
		_, _ = s.AddTorrent(p)
	})
	if !started {
		s.post(&AddTorrentAlert{alertBase: newAlertBase(), Params: p, Err: ErrSessionClosed})
	}
}

// AddTorrentFile reads a torrent file from r and adds it with default params.
// At most Config.MaxTorrentSize bytes are read.
func (s *Session) AddTorrentFile(r io.Reader, savePath string) (*Torrent, error) {
	r = io.LimitReader(r, s.config.MaxTorrentSize)
	mi, err := metainfo.New(r)
	if err != nil {
		return nil, newInputError(err)
	}
	return s.AddTorrent(&AddTorrentParams{TorrentInfo: mi, SavePath: savePath})
}

// ParseMagnetURI returns the params to add the torrent of a magnet link.
func (s *Session) ParseMagnetURI(uri string) (*AddTorrentParams, error) {
	return ParseMagnetURI(uri)
}

func (s *Session) addTorrent(p *AddTorrentParams, id string, persist bool) (*torrent, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if id == "" {
		u1, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		id = base64.RawURLEncoding.EncodeToString(u1[:])
	}
	ih := p.infoHash()

	s.mTorrents.Lock()
	if s.closed {
		s.mTorrents.Unlock()
		return nil, ErrSessionClosed
	}
	if _, ok := s.torrentsByInfoHash[ih]; ok {
		s.mTorrents.Unlock()
		return nil, ErrDuplicateTorrent
	}
	t := newTorrent(s, id, p)
	s.torrents[id] = t
	s.torrentsByInfoHash[ih] = t
	s.mTorrents.Unlock()

	if s.dht != nil {
		for _, node := range p.DHTNodes {
			s.dht.AddNode(node)
		}
	}
	s.engine.AddTorrent(t.handle)
	if persist && s.resumer != nil {
		s.writeResumeData([]*torrent{t})
	}
	s.requestDHTPeers(t)
	t.log.Infof("added torrent: %q", t.Name())
	return t, nil
}

// RemoveTorrent removes the torrent from the session immediately.
// The engine releases its resources in background and TorrentRemovedAlert is posted when it is done.
func (s *Session) RemoveTorrent(h *Torrent) error {
	t := h.torrent
	s.mTorrents.Lock()
	if s.closed {
		s.mTorrents.Unlock()
		return ErrSessionClosed
	}
	if cur, ok := s.torrents[t.id]; !ok || cur != t {
		s.mTorrents.Unlock()
		return ErrTorrentRemoved
	}
	delete(s.torrents, t.id)
	delete(s.torrentsByInfoHash, t.infoHash)
	s.mTorrents.Unlock()

	s.mPeerRequests.Lock()
	delete(s.dhtPeerRequests, t)
	s.mPeerRequests.Unlock()

	t.m.Lock()
	t.updateTimers(time.Now())
	t.removed = true
	base := newTorrentAlert(t)
	t.m.Unlock()
	t.cancel()
	t.stopMeters()

	started := s.goWorker(func(stopC chan struct{}) {
		if err := s.engine.RemoveTorrent(s.ctx, t.handle); err != nil {
			t.log.Errorln("cannot remove torrent:", err.Error())
		}
		if s.resumer != nil {
			if err := s.resumer.Delete(t.id); err != nil {
				t.log.Errorln("cannot delete resume data:", err.Error())
			}
		}
		s.post(&TorrentRemovedAlert{TorrentAlert: base})
	})
	if !started {
		s.post(&TorrentRemovedAlert{TorrentAlert: base})
	}
	return nil
}
