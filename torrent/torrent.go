package torrent

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/Falcosc/libtorrent/internal/bitfield"
	"github.com/Falcosc/libtorrent/internal/logger"
	"github.com/Falcosc/libtorrent/internal/peerset"
	"github.com/Falcosc/libtorrent/internal/piecepriority"
	"github.com/Falcosc/libtorrent/metainfo"
	"github.com/rcrowley/go-metrics"
)

// State of a torrent. Paused and error are reported separately in Status.
type State int

// Torrent states.
const (
	DownloadingMetadata State = iota + 1
	Downloading
	Finished
	Seeding
)

var stateStrings = map[State]string{
	DownloadingMetadata: "downloading_metadata",
	Downloading:         "downloading",
	Finished:            "finished",
	Seeding:             "seeding",
}

func (s State) String() string {
	if str, ok := stateStrings[s]; ok {
		return str
	}
	return "unknown"
}

// torrent is the control block of a torrent in a session.
type torrent struct {
	session  *Session
	id       string
	infoHash InfoHash
	log      logger.Logger
	handle   *EngineHandle
	pub      *Torrent

	// canceled on removal and on session close
	ctx    context.Context
	cancel context.CancelFunc

	downloadSpeed metrics.Meter
	uploadSpeed   metrics.Meter

	m sync.RWMutex

	// held while calling Engine.UpdatePriorities
	updateM sync.Mutex
	// sequence of the last piece priority change, guarded by m
	prioSeq uint64
	// sequence of the last table given to the engine, guarded by updateM
	sentSeq uint64

	// nil until metadata is known
	info *metainfo.MetaInfo

	name      string
	savePath  string
	trackers  [][]string
	urlSeeds  []string
	httpSeeds []string

	filePriorities  []int
	piecePriorities []int
	bitfield        bitfield.BitField
	deadlines       map[uint32]time.Time

	// read from resume data before the metadata is known
	resumedPiecePriorities []int
	resumedPieces          []bool

	peers     *peerset.PeerSet
	banned    *peerset.PeerSet
	connected map[netip.AddrPort]*bitfield.BitField

	paused  bool
	state   State
	err     error
	removed bool

	uploaded   int64
	downloaded int64

	// accumulated until lastTick
	activeTime   time.Duration
	seedingTime  time.Duration
	finishedTime time.Duration
	lastTick     time.Time

	addedTime        time.Time
	completedTime    time.Time
	lastSeenComplete time.Time
	lastUpload       time.Time
	lastDownload     time.Time
	nextAnnounce     time.Time
}

func newTorrent(s *Session, id string, p *AddTorrentParams) *torrent {
	now := time.Now()
	ih := p.infoHash()
	ctx, cancel := context.WithCancel(s.ctx)
	t := &torrent{
		session:          s,
		id:               id,
		infoHash:         ih,
		log:              logger.New("torrent " + ih.String()[:8]),
		ctx:              ctx,
		cancel:           cancel,
		downloadSpeed:    metrics.NewMeter(),
		uploadSpeed:      metrics.NewMeter(),
		info:             p.TorrentInfo,
		name:             p.Name,
		savePath:         p.SavePath,
		trackers:         copyTiers(p.Trackers),
		urlSeeds:         append([]string(nil), p.URLSeeds...),
		httpSeeds:        append([]string(nil), p.HTTPSeeds...),
		filePriorities:   append([]int(nil), p.FilePriorities...),
		deadlines:        make(map[uint32]time.Time),
		peers:            peerset.New(p.Peers...),
		banned:           peerset.New(p.BannedPeers...),
		connected:        make(map[netip.AddrPort]*bitfield.BitField),
		paused:           p.Paused,
		uploaded:         p.TotalUploaded,
		downloaded:       p.TotalDownloaded,
		activeTime:       p.ActiveTime,
		seedingTime:      p.SeedingTime,
		finishedTime:     p.FinishedTime,
		lastTick:         now,
		addedTime:        p.AddedTime,
		completedTime:    p.CompletedTime,
		lastSeenComplete: p.LastSeenComplete,
		lastUpload:       p.LastUpload,
		lastDownload:     p.LastDownload,
	}
	t.handle = &EngineHandle{t: t}
	t.pub = &Torrent{torrent: t}
	if t.savePath == "" {
		t.savePath = s.config.DataDir
	}
	if t.addedTime.IsZero() {
		t.addedTime = now
	}
	for _, addr := range p.BannedPeers {
		t.peers.Remove(addr)
	}
	if mi := p.TorrentInfo; mi != nil {
		if t.name == "" {
			t.name = mi.Info.Name
		}
		if len(t.trackers) == 0 {
			t.trackers = copyTiers(mi.AnnounceList)
		}
		if len(t.urlSeeds) == 0 {
			t.urlSeeds = append([]string(nil), mi.URLList...)
		}
		if len(t.httpSeeds) == 0 {
			t.httpSeeds = append([]string(nil), mi.HTTPSeeds...)
		}
		t.initMetadata()
		if len(p.PiecePriorities) > 0 {
			t.piecePriorities = append([]int(nil), p.PiecePriorities...)
		}
		if len(p.HavePieces) > 0 {
			t.bitfield = bitfield.FromBools(p.HavePieces)
		}
	} else {
		t.resumedPiecePriorities = append([]int(nil), p.PiecePriorities...)
		t.resumedPieces = append([]bool(nil), p.HavePieces...)
	}
	t.state = t.computeState()
	return t
}

func copyTiers(tiers [][]string) [][]string {
	ret := make([][]string, 0, len(tiers))
	for _, tier := range tiers {
		ret = append(ret, append([]string(nil), tier...))
	}
	return ret
}

// initMetadata sizes the tables after t.info is set.
func (t *torrent) initMetadata() {
	info := t.info.Info
	numFiles := len(info.Files)
	if len(t.filePriorities) > numFiles {
		t.filePriorities = t.filePriorities[:numFiles]
	}
	for len(t.filePriorities) < numFiles {
		t.filePriorities = append(t.filePriorities, piecepriority.Default)
	}
	t.piecePriorities = piecepriority.Cascade(info, t.filePriorities)
	t.bitfield = bitfield.New(info.NumPieces)
	for addr := range t.connected {
		bf := bitfield.New(info.NumPieces)
		t.connected[addr] = &bf
	}
}

// applyResumedPieces restores the piece tables read from resume data once the metadata is known.
// Tables that do not match the number of pieces are dropped.
func (t *torrent) applyResumedPieces() {
	numPieces := int(t.info.Info.NumPieces)
	if n := len(t.resumedPiecePriorities); n == numPieces {
		t.piecePriorities = t.resumedPiecePriorities
	} else if n > 0 {
		t.log.Warningf("dropping resumed piece priorities: %d for %d pieces", n, numPieces)
	}
	if n := len(t.resumedPieces); n == numPieces {
		t.bitfield = bitfield.FromBools(t.resumedPieces)
	} else if n > 0 {
		t.log.Warningf("dropping resumed pieces: %d for %d pieces", n, numPieces)
	}
	t.resumedPiecePriorities, t.resumedPieces = nil, nil
}

func (t *torrent) nameNoLock() string {
	return t.name
}

func (t *torrent) newAlert() TorrentAlert {
	t.m.RLock()
	defer t.m.RUnlock()
	return newTorrentAlert(t)
}

func (t *torrent) computeState() State {
	if t.info == nil {
		return DownloadingMetadata
	}
	if t.bitfield.All() {
		return Seeding
	}
	for i, prio := range t.piecePriorities {
		if prio > piecepriority.Skip && !t.bitfield.Test(uint32(i)) {
			return Downloading
		}
	}
	return Finished
}

// updateTimers adds the time passed since the last call to the active, seeding and finished durations.
func (t *torrent) updateTimers(now time.Time) {
	active, seeding, finished := t.durations(now)
	t.activeTime, t.seedingTime, t.finishedTime = active, seeding, finished
	t.lastTick = now
}

// durations returns the durations as they would be after updateTimers(now).
func (t *torrent) durations(now time.Time) (active, seeding, finished time.Duration) {
	active, seeding, finished = t.activeTime, t.seedingTime, t.finishedTime
	if t.paused || t.err != nil || t.removed {
		return
	}
	d := now.Sub(t.lastTick)
	active += d
	switch t.state {
	case Seeding:
		seeding += d
		finished += d
	case Finished:
		finished += d
	}
	return
}

// updateState recomputes the state and returns the alerts of the transition.
func (t *torrent) updateState(now time.Time) []Alert {
	state := t.computeState()
	if state == t.state {
		return nil
	}
	t.updateTimers(now)
	prev := t.state
	t.state = state
	alerts := []Alert{&StateChangedAlert{TorrentAlert: newTorrentAlert(t), State: state, PrevState: prev}}
	if (state == Finished || state == Seeding) && prev == Downloading {
		t.completedTime = now
		alerts = append(alerts, &TorrentFinishedAlert{TorrentAlert: newTorrentAlert(t)})
	}
	return alerts
}

func (t *torrent) pieceFinished(index uint32) {
	t.m.Lock()
	if t.removed || t.info == nil || index >= t.info.Info.NumPieces || t.bitfield.Test(index) {
		t.m.Unlock()
		return
	}
	t.bitfield.Set(index)
	delete(t.deadlines, index)
	alerts := []Alert{&PieceFinishedAlert{TorrentAlert: newTorrentAlert(t), Index: index}}
	alerts = append(alerts, t.updateState(time.Now())...)
	t.m.Unlock()
	t.session.stats.Inc("ses.num_piece_passed", 1)
	t.session.post(alerts...)
}

func (t *torrent) hashFailed(index uint32) {
	a := &HashFailedAlert{TorrentAlert: t.newAlert(), Index: index}
	t.session.stats.Inc("ses.num_piece_failed", 1)
	t.session.post(a)
}

func (t *torrent) peerConnected(addr netip.AddrPort) {
	addr = netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())
	t.m.Lock()
	if t.removed {
		t.m.Unlock()
		return
	}
	if reason := t.blockReason(addr); reason != "" {
		a := &PeerBlockedAlert{TorrentAlert: newTorrentAlert(t), Addr: addr, Reason: reason}
		t.m.Unlock()
		t.session.post(a)
		return
	}
	t.peers.Add(addr)
	var bf bitfield.BitField
	if t.info != nil {
		bf = bitfield.New(t.info.Info.NumPieces)
	}
	t.connected[addr] = &bf
	a := &PeerConnectAlert{TorrentAlert: newTorrentAlert(t), Addr: addr}
	t.m.Unlock()
	t.session.stats.Inc("peer.connection_attempts", 1)
	t.session.post(a)
}

// blockReason must be called with the lock held.
func (t *torrent) blockReason(addr netip.AddrPort) string {
	switch {
	case t.banned.Has(addr):
		return "banned"
	case t.session.filter.Blocked(addr.Addr()):
		return "ip filter"
	}
	return ""
}

func (t *torrent) peerDisconnected(addr netip.AddrPort) {
	addr = netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())
	t.m.Lock()
	delete(t.connected, addr)
	t.m.Unlock()
	t.session.stats.Inc("peer.disconnected_peers", 1)
}

func (t *torrent) peerHave(addr netip.AddrPort, index uint32) {
	addr = netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())
	t.m.Lock()
	bf, ok := t.connected[addr]
	if !ok || index >= bf.Len() {
		t.m.Unlock()
		return
	}
	bf.Set(index)
	if lowest, _ := t.availability(); lowest > 0 {
		t.lastSeenComplete = time.Now()
	}
	t.m.Unlock()
	t.session.stats.Inc("ses.num_incoming_have", 1)
}

// availability returns the lowest number of connected peers having a piece
// and the number of pieces available from more peers than that.
func (t *torrent) availability() (lowest, above int) {
	if t.info == nil || t.info.Info.NumPieces == 0 {
		return 0, 0
	}
	counts := make([]int, t.info.Info.NumPieces)
	for _, bf := range t.connected {
		if bf.Len() != t.info.Info.NumPieces {
			continue
		}
		for i := range counts {
			if bf.Test(uint32(i)) {
				counts[i]++
			}
		}
	}
	lowest = counts[0]
	for _, c := range counts {
		if c < lowest {
			lowest = c
		}
	}
	for _, c := range counts {
		if c > lowest {
			above++
		}
	}
	return lowest, above
}

func (t *torrent) addTransfer(uploaded, downloaded int64) {
	now := time.Now()
	t.m.Lock()
	t.uploaded += uploaded
	t.downloaded += downloaded
	if uploaded > 0 {
		t.lastUpload = now
	}
	if downloaded > 0 {
		t.lastDownload = now
	}
	t.m.Unlock()
	t.uploadSpeed.Mark(uploaded)
	t.downloadSpeed.Mark(downloaded)
	t.session.stats.Inc("net.sent_payload_bytes", uploaded)
	t.session.stats.Inc("net.recv_payload_bytes", downloaded)
}

func (t *torrent) setNextAnnounce(at time.Time) {
	t.m.Lock()
	t.nextAnnounce = at
	t.m.Unlock()
}

func (t *torrent) setError(err error) {
	t.m.Lock()
	if t.removed {
		t.m.Unlock()
		return
	}
	t.updateTimers(time.Now())
	t.err = err
	a := &TorrentErrorAlert{TorrentAlert: newTorrentAlert(t), Err: err}
	t.m.Unlock()
	t.log.Errorln("torrent error:", err.Error())
	t.session.post(a)
}

func (t *torrent) fileError(filename, op string, err error) {
	t.m.Lock()
	if t.removed {
		t.m.Unlock()
		return
	}
	t.updateTimers(time.Now())
	t.err = fmt.Errorf("%s %s: %w", op, filename, err)
	a := &FileErrorAlert{TorrentAlert: newTorrentAlert(t), Filename: filename, Op: op, Err: err}
	t.m.Unlock()
	t.log.Errorf("file error: %s %s: %s", op, filename, err)
	t.session.post(a)
}

func (t *torrent) setMetadata(b []byte) error {
	mi, err := metainfo.NewFromValue(metadataDict(b))
	if err == nil && mi.InfoHash() != t.infoHash {
		err = ErrHashMismatch
	}
	if err != nil {
		a := &MetadataFailedAlert{TorrentAlert: t.newAlert(), Err: err}
		t.session.post(a)
		return err
	}
	t.m.Lock()
	if t.removed {
		t.m.Unlock()
		return ErrTorrentRemoved
	}
	if t.info != nil {
		t.m.Unlock()
		return nil
	}
	t.info = mi
	if t.name == "" {
		t.name = mi.Info.Name
	}
	t.initMetadata()
	t.applyResumedPieces()
	seq, prios := t.snapshotPriorities()
	alerts := []Alert{&MetadataReceivedAlert{TorrentAlert: newTorrentAlert(t)}}
	alerts = append(alerts, t.updateState(time.Now())...)
	t.m.Unlock()
	t.sendPriorities(seq, prios)
	t.session.post(alerts...)
	return nil
}

func (t *torrent) stopMeters() {
	t.downloadSpeed.Stop()
	t.uploadSpeed.Stop()
}

// Name returns the torrent name under the read lock.
func (t *torrent) Name() string {
	t.m.RLock()
	defer t.m.RUnlock()
	return t.name
}
