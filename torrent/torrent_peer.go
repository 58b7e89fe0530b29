package torrent

import (
	"fmt"
	"net/netip"
	"time"
)

func normalizeAddr(addr netip.AddrPort) (netip.AddrPort, error) {
	if !addr.IsValid() || addr.Port() == 0 {
		return addr, fmt.Errorf("%w: peer address: %s", ErrInvalidField, addr)
	}
	return netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port()), nil
}

func (t *torrent) connectPeer(addr netip.AddrPort) error {
	addr, err := normalizeAddr(addr)
	if err != nil {
		return err
	}
	t.m.Lock()
	if t.removed {
		t.m.Unlock()
		return ErrTorrentRemoved
	}
	if t.banned.Has(addr) {
		a := &PeerBlockedAlert{TorrentAlert: newTorrentAlert(t), Addr: addr, Reason: "banned"}
		t.m.Unlock()
		t.session.post(a)
		return ErrPeerBanned
	}
	if t.session.filter.Blocked(addr.Addr()) {
		a := &PeerBlockedAlert{TorrentAlert: newTorrentAlert(t), Addr: addr, Reason: "ip filter"}
		t.m.Unlock()
		t.session.post(a)
		return ErrPeerBlocked
	}
	t.peers.Add(addr)
	t.m.Unlock()
	return t.session.engine.ConnectPeer(t.handle, addr)
}

func (t *torrent) banPeer(addr netip.AddrPort) error {
	addr, err := normalizeAddr(addr)
	if err != nil {
		return err
	}
	t.m.Lock()
	defer t.m.Unlock()
	if t.removed {
		return ErrTorrentRemoved
	}
	t.banned.Add(addr)
	t.peers.Remove(addr)
	delete(t.connected, addr)
	return nil
}

func (t *torrent) knownPeers() []netip.AddrPort {
	t.m.RLock()
	defer t.m.RUnlock()
	return t.peers.List()
}

func (t *torrent) bannedPeers() []netip.AddrPort {
	t.m.RLock()
	defer t.m.RUnlock()
	return t.banned.List()
}

// addPeers adds addresses found by the DHT and returns the number of new ones.
func (t *torrent) addPeers(addrs []netip.AddrPort) int {
	t.m.Lock()
	defer t.m.Unlock()
	var n int
	for _, addr := range addrs {
		if t.banned.Has(addr) || t.session.filter.Blocked(addr.Addr()) {
			continue
		}
		if t.peers.Add(addr) {
			n++
		}
	}
	return n
}

func (t *torrent) pause() error {
	t.m.Lock()
	if t.removed {
		t.m.Unlock()
		return ErrTorrentRemoved
	}
	if t.paused {
		t.m.Unlock()
		return nil
	}
	t.updateTimers(time.Now())
	t.paused = true
	a := &TorrentPausedAlert{TorrentAlert: newTorrentAlert(t)}
	t.m.Unlock()
	t.log.Info("torrent paused")
	t.session.post(a)
	return nil
}

func (t *torrent) resume() error {
	t.m.Lock()
	if t.removed {
		t.m.Unlock()
		return ErrTorrentRemoved
	}
	if !t.paused && t.err == nil {
		t.m.Unlock()
		return nil
	}
	// time spent paused or stopped with an error is not active
	t.lastTick = time.Now()
	t.paused = false
	t.err = nil
	a := &TorrentResumedAlert{TorrentAlert: newTorrentAlert(t)}
	t.m.Unlock()
	t.log.Info("torrent resumed")
	t.session.post(a)
	return nil
}

// dropBlocked forgets known and connected peers in blocked ranges.
func (t *torrent) dropBlocked() {
	t.m.Lock()
	if t.removed {
		t.m.Unlock()
		return
	}
	var alerts []Alert
	for _, addr := range t.peers.List() {
		if !t.session.filter.Blocked(addr.Addr()) {
			continue
		}
		t.peers.Remove(addr)
		if _, ok := t.connected[addr]; ok {
			delete(t.connected, addr)
			alerts = append(alerts, &PeerBlockedAlert{TorrentAlert: newTorrentAlert(t), Addr: addr, Reason: "ip filter"})
		}
	}
	t.m.Unlock()
	t.session.post(alerts...)
}
