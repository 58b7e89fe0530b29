package torrent

import (
	"context"
	"net/netip"
	"time"

	"github.com/Falcosc/libtorrent/metainfo"
	"github.com/juju/ratelimit"
)

// Engine does the disk and network work of torrents in a session.
// Methods are called without holding any session or torrent lock.
type Engine interface {
	// AddTorrent is called once after the torrent is inserted into the session.
	AddTorrent(h *EngineHandle)
	// UpdatePriorities is called after piece priorities change.
	// A piece in progress keeps downloading and the new priorities apply to the next pick.
	// Calls for a torrent are made one at a time in the order of the changes. Stale tables are skipped.
	// It must not change priorities of the same torrent.
	UpdatePriorities(h *EngineHandle, piecePriorities []int)
	// ConnectPeer starts a connection to addr. The engine calls PeerConnected once the connection is established.
	ConnectPeer(h *EngineHandle, addr netip.AddrPort) error
	// RemoveTorrent releases every resource of the torrent and blocks until pending writes are flushed.
	RemoveTorrent(ctx context.Context, h *EngineHandle) error
}

// EngineHandle is the view of a torrent given to the Engine.
// The engine reports back through its methods, which are safe for concurrent use.
type EngineHandle struct {
	t *torrent
}

// InfoHash of the torrent.
func (h *EngineHandle) InfoHash() InfoHash { return h.t.infoHash }

// Context is canceled when the torrent is removed or the session is closed.
func (h *EngineHandle) Context() context.Context { return h.t.ctx }

// TorrentFile returns the metadata of the torrent or nil if it is not known yet.
func (h *EngineHandle) TorrentFile() *metainfo.MetaInfo {
	h.t.m.RLock()
	defer h.t.m.RUnlock()
	return h.t.info
}

// SavePath is the directory the files of the torrent are stored in.
func (h *EngineHandle) SavePath() string {
	h.t.m.RLock()
	defer h.t.m.RUnlock()
	return h.t.savePath
}

// PiecePriorities returns a copy of the current piece priorities.
func (h *EngineHandle) PiecePriorities() []int {
	h.t.m.RLock()
	defer h.t.m.RUnlock()
	return append([]int(nil), h.t.piecePriorities...)
}

// HavePieces returns the completion state of every piece.
func (h *EngineHandle) HavePieces() []bool {
	h.t.m.RLock()
	defer h.t.m.RUnlock()
	return h.t.bitfield.Bools()
}

// PieceDeadlines returns the pieces that should be downloaded first and their deadlines.
func (h *EngineHandle) PieceDeadlines() map[uint32]time.Time { return h.t.pieceDeadlines() }

// Paused reports whether the engine should stop transferring data for the torrent.
func (h *EngineHandle) Paused() bool {
	h.t.m.RLock()
	defer h.t.m.RUnlock()
	return h.t.paused
}

// RateLimiters returns the session wide download and upload buckets. A nil bucket means unlimited.
func (h *EngineHandle) RateLimiters() (download, upload *ratelimit.Bucket) {
	return h.t.session.rateLimiters()
}

// PieceFinished marks a piece as verified and written.
func (h *EngineHandle) PieceFinished(index uint32) { h.t.pieceFinished(index) }

// HashFailed reports a downloaded piece that does not match its hash.
func (h *EngineHandle) HashFailed(index uint32) { h.t.hashFailed(index) }

// PeerConnected reports an established peer connection.
func (h *EngineHandle) PeerConnected(addr netip.AddrPort) { h.t.peerConnected(addr) }

// PeerDisconnected reports a closed peer connection.
func (h *EngineHandle) PeerDisconnected(addr netip.AddrPort) { h.t.peerDisconnected(addr) }

// PeerHave reports that a connected peer has the piece at index.
func (h *EngineHandle) PeerHave(addr netip.AddrPort, index uint32) { h.t.peerHave(addr, index) }

// AddTransfer adds payload bytes to the transfer counters of the torrent.
func (h *EngineHandle) AddTransfer(uploaded, downloaded int64) {
	h.t.addTransfer(uploaded, downloaded)
}

// SetNextAnnounce sets the time of the next tracker announce shown in Status.
func (h *EngineHandle) SetNextAnnounce(at time.Time) { h.t.setNextAnnounce(at) }

// SetError stops the torrent with err.
func (h *EngineHandle) SetError(err error) { h.t.setError(err) }

// FileError reports a failed operation on a file of the torrent.
func (h *EngineHandle) FileError(filename, op string, err error) {
	h.t.fileError(filename, op, err)
}

// SetMetadata sets the info dictionary of a torrent added by info hash.
// ErrHashMismatch is returned if the SHA-1 of info does not match.
func (h *EngineHandle) SetMetadata(info []byte) error { return h.t.setMetadata(info) }

// noopEngine accepts every request and never transfers data.
type noopEngine struct{}

func (noopEngine) AddTorrent(*EngineHandle)              {}
func (noopEngine) UpdatePriorities(*EngineHandle, []int) {}

func (noopEngine) ConnectPeer(h *EngineHandle, addr netip.AddrPort) error {
	h.PeerConnected(addr)
	return nil
}

func (noopEngine) RemoveTorrent(context.Context, *EngineHandle) error { return nil }
