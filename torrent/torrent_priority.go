package torrent

import (
	"fmt"
	"time"

	"github.com/Falcosc/libtorrent/internal/piecepriority"
	"github.com/Falcosc/libtorrent/metainfo"
)

func checkPriority(kind string, index, prio int) error {
	if !piecepriority.Valid(prio) {
		return fmt.Errorf("%w: %s %d: %d", ErrInvalidPriority, kind, index, prio)
	}
	return nil
}

func (t *torrent) prioritizeFiles(prios map[int]int) error {
	t.m.Lock()
	if t.removed {
		t.m.Unlock()
		return ErrTorrentRemoved
	}
	numFiles := metainfo.MaxFiles
	if t.info != nil {
		numFiles = t.info.NumFiles()
	}
	for i, p := range prios {
		if i < 0 || i >= numFiles {
			t.m.Unlock()
			return fmt.Errorf("%w: file %d", ErrIndexOutOfRange, i)
		}
		if err := checkPriority("file", i, p); err != nil {
			t.m.Unlock()
			return err
		}
	}
	for i, p := range prios {
		for len(t.filePriorities) <= i {
			t.filePriorities = append(t.filePriorities, piecepriority.Default)
		}
		t.filePriorities[i] = p
	}
	return t.cascadeAndUnlock()
}

func (t *torrent) setFilePriorities(prios []int) error {
	t.m.Lock()
	if t.removed {
		t.m.Unlock()
		return ErrTorrentRemoved
	}
	if t.info != nil && len(prios) != t.info.NumFiles() {
		t.m.Unlock()
		return fmt.Errorf("%w: %d priorities for %d files", ErrIndexOutOfRange, len(prios), t.info.NumFiles())
	}
	if len(prios) > metainfo.MaxFiles {
		t.m.Unlock()
		return fmt.Errorf("%w: %d priorities", ErrIndexOutOfRange, len(prios))
	}
	for i, p := range prios {
		if err := checkPriority("file", i, p); err != nil {
			t.m.Unlock()
			return err
		}
	}
	t.filePriorities = append(t.filePriorities[:0], prios...)
	return t.cascadeAndUnlock()
}

// cascadeAndUnlock recomputes piece priorities from file priorities, releases the lock and notifies the engine.
// Without metadata the file priorities are kept until it arrives.
func (t *torrent) cascadeAndUnlock() error {
	if t.info == nil {
		t.m.Unlock()
		return nil
	}
	t.piecePriorities = piecepriority.Cascade(t.info.Info, t.filePriorities)
	return t.piecesChangedAndUnlock()
}

func (t *torrent) piecesChangedAndUnlock() error {
	seq, prios := t.snapshotPriorities()
	alerts := t.updateState(time.Now())
	t.m.Unlock()
	t.sendPriorities(seq, prios)
	t.session.post(alerts...)
	return nil
}

// snapshotPriorities must be called with the lock held.
func (t *torrent) snapshotPriorities() (uint64, []int) {
	t.prioSeq++
	return t.prioSeq, append([]int(nil), t.piecePriorities...)
}

// sendPriorities gives the engine a table taken by snapshotPriorities.
// A table older than the last one given is dropped, so the engine always ends up with the latest.
func (t *torrent) sendPriorities(seq uint64, prios []int) {
	t.updateM.Lock()
	defer t.updateM.Unlock()
	if seq <= t.sentSeq {
		return
	}
	t.sentSeq = seq
	t.session.engine.UpdatePriorities(t.handle, prios)
}

func (t *torrent) prioritizePieces(prios map[int]int) error {
	t.m.Lock()
	if err := t.checkMetadata(); err != nil {
		t.m.Unlock()
		return err
	}
	for i, p := range prios {
		if i < 0 || i >= len(t.piecePriorities) {
			t.m.Unlock()
			return fmt.Errorf("%w: piece %d", ErrIndexOutOfRange, i)
		}
		if err := checkPriority("piece", i, p); err != nil {
			t.m.Unlock()
			return err
		}
	}
	for i, p := range prios {
		t.piecePriorities[i] = p
	}
	return t.piecesChangedAndUnlock()
}

func (t *torrent) setPiecePriorities(prios []int) error {
	t.m.Lock()
	if err := t.checkMetadata(); err != nil {
		t.m.Unlock()
		return err
	}
	if len(prios) != len(t.piecePriorities) {
		t.m.Unlock()
		return fmt.Errorf("%w: %d priorities for %d pieces", ErrIndexOutOfRange, len(prios), len(t.piecePriorities))
	}
	for i, p := range prios {
		if err := checkPriority("piece", i, p); err != nil {
			t.m.Unlock()
			return err
		}
	}
	copy(t.piecePriorities, prios)
	return t.piecesChangedAndUnlock()
}

// checkMetadata must be called with the lock held.
func (t *torrent) checkMetadata() error {
	if t.removed {
		return ErrTorrentRemoved
	}
	if t.info == nil {
		return ErrNoMetadata
	}
	return nil
}

func (t *torrent) checkPiece(index uint32) error {
	if err := t.checkMetadata(); err != nil {
		return err
	}
	if index >= t.info.Info.NumPieces {
		return fmt.Errorf("%w: piece %d of %d", ErrIndexOutOfRange, index, t.info.Info.NumPieces)
	}
	return nil
}

func (t *torrent) setPieceDeadline(index uint32, d time.Duration) error {
	t.m.Lock()
	defer t.m.Unlock()
	if err := t.checkPiece(index); err != nil {
		return err
	}
	t.deadlines[index] = time.Now().Add(d)
	return nil
}

func (t *torrent) resetPieceDeadline(index uint32) error {
	t.m.Lock()
	defer t.m.Unlock()
	if err := t.checkPiece(index); err != nil {
		return err
	}
	delete(t.deadlines, index)
	return nil
}

func (t *torrent) clearPieceDeadlines() {
	t.m.Lock()
	t.deadlines = make(map[uint32]time.Time)
	t.m.Unlock()
}

func (t *torrent) pieceDeadlines() map[uint32]time.Time {
	t.m.RLock()
	defer t.m.RUnlock()
	ret := make(map[uint32]time.Time, len(t.deadlines))
	for i, d := range t.deadlines {
		ret[i] = d
	}
	return ret
}
