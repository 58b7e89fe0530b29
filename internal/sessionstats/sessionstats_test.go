package sessionstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	list := Metrics()
	assert.Greater(t, len(list), 40)
	seenIdx := make(map[int]bool)
	seenName := make(map[string]bool)
	for _, m := range list {
		assert.False(t, seenIdx[m.ValueIndex], m.Name)
		assert.False(t, seenName[m.Name], m.Name)
		seenIdx[m.ValueIndex] = true
		seenName[m.Name] = true
		assert.Equal(t, m.ValueIndex, Find(m.Name))
	}
	assert.Equal(t, 0, Find("peer.error_peers"))
	assert.Equal(t, -1, Find("peer.no_such_metric"))
}

func TestStats(t *testing.T) {
	s := New()
	s.Inc("net.recv_payload_bytes", 10)
	s.Inc("net.recv_payload_bytes", 5)
	s.Set("dht.dht_nodes", 42)
	s.Inc("dht.dht_nodes", 1)   // gauge, ignored
	s.Set("peer.error_peers", 1) // counter, ignored
	s.Inc("unknown", 1)

	snap := s.Snapshot()
	assert.Len(t, snap, len(Metrics()))
	assert.Equal(t, int64(15), snap["net.recv_payload_bytes"])
	assert.Equal(t, int64(42), snap["dht.dht_nodes"])
	assert.Equal(t, int64(0), snap["peer.error_peers"])

	values := s.Values()
	assert.Equal(t, int64(15), values[Find("net.recv_payload_bytes")])
}

func TestSetFunc(t *testing.T) {
	s := New()
	var n int64 = 3
	s.SetFunc("ses.num_seeding_torrents", func() int64 { return n })
	assert.Equal(t, int64(3), s.Snapshot()["ses.num_seeding_torrents"])
	n = 4
	assert.Equal(t, int64(4), s.Values()[Find("ses.num_seeding_torrents")])
	assert.NotNil(t, s.Registry().Get("ses.num_seeding_torrents"))
}
