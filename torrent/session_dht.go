package torrent

import (
	"net/netip"
	"time"

	"github.com/nictuku/dht"
)

func (s *Session) startDHT() error {
	cfg := dht.NewConfig()
	cfg.Address = s.config.DHTAddress
	cfg.Port = int(s.config.DHTPort)
	cfg.DHTRouters = s.config.DHTRouters
	cfg.SaveRoutingTable = false
	node, err := dht.New(cfg)
	if err != nil {
		return err
	}
	if err = node.Start(); err != nil {
		return err
	}
	s.dht = node
	return nil
}

// requestDHTPeers queues a peer lookup for a public torrent.
func (s *Session) requestDHTPeers(t *torrent) {
	if s.dht == nil {
		return
	}
	t.m.RLock()
	private := t.info != nil && t.info.Info.Private
	t.m.RUnlock()
	if private {
		return
	}
	s.mPeerRequests.Lock()
	s.dhtPeerRequests[t] = struct{}{}
	s.mPeerRequests.Unlock()
}

func (s *Session) processDHTResults(stopC chan struct{}) {
	dhtLimiter := time.NewTicker(time.Second)
	defer dhtLimiter.Stop()
	for {
		select {
		case <-dhtLimiter.C:
			s.handleDHTtick()
		case res := <-s.dht.PeersRequestResults:
			for ih, peers := range res {
				var key InfoHash
				copy(key[:], ih)
				s.mTorrents.RLock()
				t, ok := s.torrentsByInfoHash[key]
				s.mTorrents.RUnlock()
				if !ok {
					continue
				}
				addrs := parseDHTPeers(peers)
				n := t.addPeers(addrs)
				t.log.Debugf("received %d peers from DHT, %d new", len(addrs), n)
				s.stats.Inc("dht.dht_peers_received", int64(len(addrs)))
				s.post(&DHTReplyAlert{TorrentAlert: t.newAlert(), NumPeers: len(addrs)})
			}
		case <-stopC:
			return
		}
	}
}

func (s *Session) handleDHTtick() {
	s.mPeerRequests.Lock()
	defer s.mPeerRequests.Unlock()
	for t := range s.dhtPeerRequests {
		s.dht.PeersRequest(string(t.infoHash[:]), true)
		delete(s.dhtPeerRequests, t)
		return
	}
}

func parseDHTPeers(peers []string) []netip.AddrPort {
	addrs := make([]netip.AddrPort, 0, len(peers))
	for _, peer := range peers {
		if len(peer) != 6 {
			// only IPv4 is supported for now
			continue
		}
		ip := netip.AddrFrom4([4]byte{peer[0], peer[1], peer[2], peer[3]})
		port := uint16(peer[4])<<8 | uint16(peer[5])
		addrs = append(addrs, netip.AddrPortFrom(ip, port))
	}
	return addrs
}
