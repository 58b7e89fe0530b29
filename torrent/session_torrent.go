package torrent

import (
	"net/netip"
	"time"

	"github.com/Falcosc/libtorrent/metainfo"
)

// Torrent is a handle to a torrent in a Session. Handles stay usable after removal but operations return ErrTorrentRemoved.
type Torrent struct {
	torrent *torrent
}

// ID is a unique identifier in the Session.
func (t *Torrent) ID() string {
	return t.torrent.id
}

// Name of the torrent.
func (t *Torrent) Name() string {
	t.torrent.m.RLock()
	defer t.torrent.m.RUnlock()
	return t.torrent.name
}

// InfoHash returns the hash of the info dictionary of torrent file.
func (t *Torrent) InfoHash() InfoHash {
	return t.torrent.infoHash
}

// IsValid returns false after the torrent is removed from the session.
func (t *Torrent) IsValid() bool {
	t.torrent.m.RLock()
	defer t.torrent.m.RUnlock()
	return !t.torrent.removed
}

// TorrentFile returns the metadata of the torrent or nil if it is not known yet.
func (t *Torrent) TorrentFile() *metainfo.MetaInfo {
	t.torrent.m.RLock()
	defer t.torrent.m.RUnlock()
	return t.torrent.info
}

// Status returns a snapshot of the torrent.
func (t *Torrent) Status() Status {
	return t.torrent.status()
}

// FilePriorities returns a copy of the file priorities.
func (t *Torrent) FilePriorities() []int {
	t.torrent.m.RLock()
	defer t.torrent.m.RUnlock()
	return append([]int(nil), t.torrent.filePriorities...)
}

// PiecePriorities returns a copy of the piece priorities. It is nil before metadata is known.
func (t *Torrent) PiecePriorities() []int {
	t.torrent.m.RLock()
	defer t.torrent.m.RUnlock()
	return append([]int(nil), t.torrent.piecePriorities...)
}

// PrioritizeFiles sets the priority of files by index and recomputes piece priorities.
// Nothing is changed if any index or priority is invalid.
func (t *Torrent) PrioritizeFiles(prios map[int]int) error {
	return t.torrent.prioritizeFiles(prios)
}

// SetFilePriorities replaces all file priorities. The length must be the number of files.
func (t *Torrent) SetFilePriorities(prios []int) error {
	return t.torrent.setFilePriorities(prios)
}

// PrioritizePieces sets the priority of pieces by index. File priorities are not changed.
func (t *Torrent) PrioritizePieces(prios map[int]int) error {
	return t.torrent.prioritizePieces(prios)
}

// SetPiecePriorities replaces all piece priorities. The length must be the number of pieces.
func (t *Torrent) SetPiecePriorities(prios []int) error {
	return t.torrent.setPiecePriorities(prios)
}

// SetPieceDeadline asks the engine to download the piece within d.
func (t *Torrent) SetPieceDeadline(index uint32, d time.Duration) error {
	return t.torrent.setPieceDeadline(index, d)
}

// ResetPieceDeadline removes the deadline of a piece.
func (t *Torrent) ResetPieceDeadline(index uint32) error {
	return t.torrent.resetPieceDeadline(index)
}

// ClearPieceDeadlines removes all deadlines.
func (t *Torrent) ClearPieceDeadlines() {
	t.torrent.clearPieceDeadlines()
}

// PieceDeadlines returns the deadline of every piece that has one.
func (t *Torrent) PieceDeadlines() map[uint32]time.Time {
	return t.torrent.pieceDeadlines()
}

// ConnectPeer asks the engine to connect to addr.
func (t *Torrent) ConnectPeer(addr netip.AddrPort) error {
	return t.torrent.connectPeer(addr)
}

// BanPeer prevents connections to addr.
func (t *Torrent) BanPeer(addr netip.AddrPort) error {
	return t.torrent.banPeer(addr)
}

// Peers returns the known peer addresses.
func (t *Torrent) Peers() []netip.AddrPort {
	return t.torrent.knownPeers()
}

// BannedPeers returns the banned peer addresses.
func (t *Torrent) BannedPeers() []netip.AddrPort {
	return t.torrent.bannedPeers()
}

// Pause stops transfers of the torrent.
func (t *Torrent) Pause() error {
	return t.torrent.pause()
}

// Resume restarts a paused torrent and clears its error.
func (t *Torrent) Resume() error {
	return t.torrent.resume()
}

// ScrapeTracker requests swarm statistics from the first HTTP tracker.
// The result is posted as ScrapeReplyAlert or ScrapeFailedAlert.
func (t *Torrent) ScrapeTracker() {
	t.torrent.scrapeTracker()
}

// SaveResumeData generates the resume blob in background and posts SaveResumeDataAlert or SaveResumeDataFailedAlert.
func (t *Torrent) SaveResumeData() {
	t.torrent.saveResumeData()
}

// ResumeData returns the resume blob.
func (t *Torrent) ResumeData() ([]byte, error) {
	return t.torrent.resumeData()
}

// Stats returns the download and upload speed in bytes per second averaged over the last minute.
func (t *Torrent) Stats() (download, upload float64) {
	return t.torrent.downloadSpeed.Rate1(), t.torrent.uploadSpeed.Rate1()
}
