// Package torrent provides a BitTorrent session that keeps the state of torrents and posts alerts about them.
package torrent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Falcosc/libtorrent/bencode"
	"github.com/Falcosc/libtorrent/internal/alertqueue"
	"github.com/Falcosc/libtorrent/internal/ipfilter"
	"github.com/Falcosc/libtorrent/internal/logger"
	"github.com/Falcosc/libtorrent/internal/resumer/boltdbresumer"
	"github.com/Falcosc/libtorrent/internal/sessionstats"
	"github.com/Falcosc/libtorrent/internal/settings"
	"github.com/Falcosc/libtorrent/internal/worker"
	"github.com/juju/ratelimit"
	"github.com/nictuku/dht"
	bolt "go.etcd.io/bbolt"
)

var (
	sessionBucket  = []byte("session")
	torrentsBucket = []byte("torrents")
	settingsKey    = []byte("settings")
)

// Session contains torrents and delivers alerts about them.
type Session struct {
	config  Config
	log     logger.Logger
	engine  Engine
	db      *bolt.DB
	resumer *boltdbresumer.Resumer
	dht     *dht.DHT
	filter  *ipfilter.Filter
	stats   *sessionstats.Stats
	alerts  *alertqueue.Queue[Alert]
	workers worker.Workers

	// canceled on Close
	ctx    context.Context
	cancel context.CancelFunc

	alertMask uint32

	mSettings      sync.RWMutex
	settings       *settings.Settings
	downloadBucket *ratelimit.Bucket
	uploadBucket   *ratelimit.Bucket

	mTorrents          sync.RWMutex
	torrents           map[string]*torrent
	torrentsByInfoHash map[InfoHash]*torrent
	closed             bool

	mPeerRequests   sync.Mutex
	dhtPeerRequests map[*torrent]struct{}
}

// NewSession returns a new Session. Settings in cfg are validated first and an unknown key returns *UnknownSettingKeyError.
func NewSession(cfg Config) (*Session, error) {
	pack, err := settings.FromMap(cfg.Settings)
	if err != nil {
		return nil, err
	}
	if err = cfg.expandPaths(); err != nil {
		return nil, err
	}
	if cfg.Engine == nil {
		cfg.Engine = noopEngine{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		config:             cfg,
		log:                logger.New("session"),
		engine:             cfg.Engine,
		stats:              sessionstats.New(),
		ctx:                ctx,
		cancel:             cancel,
		settings:           settings.New(),
		torrents:           make(map[string]*torrent),
		torrentsByInfoHash: make(map[InfoHash]*torrent),
		dhtPeerRequests:    make(map[*torrent]struct{}),
	}
	defer func() {
		if err != nil {
			cancel()
			if s.dht != nil {
				s.dht.Stop()
			}
			if s.db != nil {
				s.db.Close()
			}
		}
	}()
	s.filter = ipfilter.New(s.log.Errorf)
	if cfg.BlocklistFile != "" {
		if err = s.loadBlocklist(cfg.BlocklistFile); err != nil {
			return nil, err
		}
	}
	if cfg.Database != "" {
		if err = s.openDatabase(); err != nil {
			return nil, err
		}
	}
	s.settings.Apply(pack)
	s.alerts = alertqueue.New[Alert](int(s.settings.Int("alert_queue_size")))
	s.applySettingsLocked()
	s.registerGauges()
	if s.settings.Bool("enable_dht") {
		if err = s.startDHT(); err != nil {
			return nil, err
		}
		s.workers.Start(worker.Func(s.processDHTResults))
	}
	if s.db != nil {
		if pack.Len() > 0 {
			s.saveSettings()
		}
		s.loadExistingTorrents()
		if cfg.ResumeWriteInterval > 0 {
			s.workers.Start(worker.Func(s.resumeWriteLoop))
		}
	}
	return s, nil
}

func (s *Session) openDatabase() error {
	err := os.MkdirAll(filepath.Dir(s.config.Database), 0750)
	if err != nil {
		return err
	}
	db, err := bolt.Open(s.config.Database, 0640, &bolt.Options{Timeout: time.Second})
	if err == bolt.ErrTimeout {
		return errors.New("resume database is locked by another process")
	} else if err != nil {
		return err
	}
	s.db = db
	var saved []byte
	err = db.Update(func(tx *bolt.Tx) error {
		b, err2 := tx.CreateBucketIfNotExists(sessionBucket)
		if err2 != nil {
			return err2
		}
		if value := b.Get(settingsKey); value != nil {
			saved = append([]byte(nil), value...)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.resumer, err = boltdbresumer.New(db, torrentsBucket)
	if err != nil {
		return err
	}
	if len(saved) > 0 {
		v, err := bencode.Decode(saved)
		if d, ok := v.(bencode.Dict); err == nil && ok {
			s.settings.Apply(settings.LoadPack(d))
		} else {
			s.log.Errorln("cannot load saved settings:", err)
		}
	}
	return nil
}

// goWorker runs fn in background unless the session is closed.
// Close waits for it to return.
func (s *Session) goWorker(fn func(stopC chan struct{})) bool {
	s.mTorrents.RLock()
	defer s.mTorrents.RUnlock()
	if s.closed {
		return false
	}
	s.workers.Start(worker.Func(fn))
	return true
}

// FindTorrent returns the torrent with the info hash or nil.
func (s *Session) FindTorrent(ih InfoHash) *Torrent {
	s.mTorrents.RLock()
	defer s.mTorrents.RUnlock()
	t, ok := s.torrentsByInfoHash[ih]
	if !ok {
		return nil
	}
	return t.pub
}

// Torrents returns all torrents in the session ordered by info hash.
func (s *Session) Torrents() []*Torrent {
	torrents := s.torrentList()
	ret := make([]*Torrent, len(torrents))
	for i, t := range torrents {
		ret[i] = t.pub
	}
	return ret
}

func (s *Session) torrentList() []*torrent {
	s.mTorrents.RLock()
	ret := make([]*torrent, 0, len(s.torrents))
	for _, t := range s.torrents {
		ret = append(ret, t)
	}
	s.mTorrents.RUnlock()
	sort.Slice(ret, func(i, j int) bool { return ret[i].infoHash.Less(ret[j].infoHash) })
	return ret
}

// Close stops background work, writes resume data of all torrents and closes the database.
func (s *Session) Close() error {
	s.mTorrents.Lock()
	if s.closed {
		s.mTorrents.Unlock()
		return nil
	}
	s.closed = true
	s.mTorrents.Unlock()

	torrents := s.torrentList()
	if s.db != nil {
		s.writeResumeData(torrents)
		s.saveSettings()
	}

	s.cancel()
	s.workers.Stop()

	for _, t := range torrents {
		t.stopMeters()
	}
	if s.dht != nil {
		s.dht.Stop()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Session) loadAlertMask() Category {
	return Category(atomic.LoadUint32(&s.alertMask))
}
