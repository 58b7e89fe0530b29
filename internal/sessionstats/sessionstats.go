// Package sessionstats keeps the counters and gauges reported in session statistics.
package sessionstats

import (
	"sync"

	"github.com/rcrowley/go-metrics"
)

// Type of a metric.
type Type int

// Metric types.
const (
	// Counter values only increase.
	Counter Type = iota
	// Gauge values are a snapshot of the current state.
	Gauge
)

func (t Type) String() string {
	if t == Gauge {
		return "gauge"
	}
	return "counter"
}

// Metric describes one value of a session statistics snapshot.
type Metric struct {
	Name       string
	ValueIndex int
	Type       Type
}

// names is ordered by value index. Append only.
var names = []struct {
	name string
	typ  Type
}{
	{"peer.error_peers", Counter},
	{"peer.disconnected_peers", Counter},
	{"peer.eof_peers", Counter},
	{"peer.connreset_peers", Counter},
	{"peer.connrefused_peers", Counter},
	{"peer.connaborted_peers", Counter},
	{"peer.notconnected_peers", Counter},
	{"peer.perm_peers", Counter},
	{"peer.buffer_peers", Counter},
	{"peer.unreachable_peers", Counter},
	{"peer.broken_pipe_peers", Counter},
	{"peer.addrinuse_peers", Counter},
	{"peer.no_access_peers", Counter},
	{"peer.invalid_arg_peers", Counter},
	{"peer.aborted_peers", Counter},
	{"peer.piece_requests", Counter},
	{"peer.max_piece_requests", Counter},
	{"peer.invalid_piece_requests", Counter},
	{"peer.choked_piece_requests", Counter},
	{"peer.cancelled_piece_requests", Counter},
	{"peer.piece_rejects", Counter},
	{"peer.banned_for_hash_failure", Counter},
	{"peer.connection_attempts", Counter},
	{"peer.connection_attempt_loops", Counter},
	{"peer.incoming_connections", Counter},
	{"peer.num_tcp_peers", Gauge},
	{"peer.num_peers_connected", Gauge},
	{"peer.num_peers_half_open", Gauge},
	{"peer.num_banned_peers", Gauge},
	{"net.sent_payload_bytes", Counter},
	{"net.sent_bytes", Counter},
	{"net.recv_payload_bytes", Counter},
	{"net.recv_bytes", Counter},
	{"net.recv_failed_bytes", Counter},
	{"net.recv_redundant_bytes", Counter},
	{"net.has_incoming_connections", Gauge},
	{"net.limiter_up_bytes", Gauge},
	{"net.limiter_down_bytes", Gauge},
	{"ses.num_checking_torrents", Gauge},
	{"ses.num_stopped_torrents", Gauge},
	{"ses.num_upload_only_torrents", Gauge},
	{"ses.num_downloading_torrents", Gauge},
	{"ses.num_seeding_torrents", Gauge},
	{"ses.num_queued_seeding_torrents", Gauge},
	{"ses.num_queued_download_torrents", Gauge},
	{"ses.num_error_torrents", Gauge},
	{"ses.num_total_pieces_added", Counter},
	{"ses.num_piece_passed", Counter},
	{"ses.num_piece_failed", Counter},
	{"ses.num_have_pieces", Gauge},
	{"ses.num_incoming_choke", Counter},
	{"ses.num_incoming_unchoke", Counter},
	{"ses.num_incoming_have", Counter},
	{"ses.torrent_evicted_counter", Counter},
	{"ses.num_unchoke_slots", Gauge},
	{"tracker.num_scrapes", Counter},
	{"tracker.num_scrape_failures", Counter},
	{"dht.dht_nodes", Gauge},
	{"dht.dht_torrents", Gauge},
	{"dht.dht_peers_received", Counter},
	{"dht.dht_get_peers_in", Counter},
	{"disk.num_resume_writes", Counter},
	{"disk.num_resume_write_failures", Counter},
	{"alerts.dropped_alerts", Gauge},
	{"alerts.alerts_posted", Counter},
}

var byName = make(map[string]int, len(names))

func init() {
	for i, n := range names {
		byName[n.name] = i
	}
}

// Metrics returns the description of every value in a snapshot.
func Metrics() []Metric {
	ret := make([]Metric, len(names))
	for i, n := range names {
		ret[i] = Metric{Name: n.name, ValueIndex: i, Type: n.typ}
	}
	return ret
}

// Find returns the value index of the metric with name or -1.
func Find(name string) int {
	i, ok := byName[name]
	if !ok {
		return -1
	}
	return i
}

// Stats holds the current values of all metrics in a go-metrics registry.
type Stats struct {
	registry metrics.Registry

	m      sync.RWMutex
	values []any // metrics.Counter or metrics.Gauge by index
}

// New returns Stats with all counters and gauges at zero.
func New() *Stats {
	s := &Stats{
		registry: metrics.NewRegistry(),
		values:   make([]any, len(names)),
	}
	for i, n := range names {
		switch n.typ {
		case Counter:
			s.values[i] = metrics.NewRegisteredCounter(n.name, s.registry)
		case Gauge:
			s.values[i] = metrics.NewRegisteredGauge(n.name, s.registry)
		}
	}
	return s
}

// Registry returns the underlying registry.
func (s *Stats) Registry() metrics.Registry {
	return s.registry
}

// Inc adds n to the counter with name. Unknown names and gauges are ignored.
func (s *Stats) Inc(name string, n int64) {
	s.m.RLock()
	defer s.m.RUnlock()
	if i, ok := byName[name]; ok {
		if c, ok := s.values[i].(metrics.Counter); ok {
			c.Inc(n)
		}
	}
}

// Set updates the gauge with name.
func (s *Stats) Set(name string, v int64) {
	s.m.RLock()
	defer s.m.RUnlock()
	if i, ok := byName[name]; ok {
		if g, ok := s.values[i].(metrics.Gauge); ok {
			g.Update(v)
		}
	}
}

// SetFunc makes the gauge with name report the result of f.
func (s *Stats) SetFunc(name string, f func() int64) {
	i, ok := byName[name]
	if !ok || names[i].typ != Gauge {
		return
	}
	g := metrics.NewFunctionalGauge(f)
	s.m.Lock()
	s.registry.Unregister(name)
	_ = s.registry.Register(name, g)
	s.values[i] = g
	s.m.Unlock()
}

// Values returns the current value of every metric ordered by value index.
func (s *Stats) Values() []int64 {
	s.m.RLock()
	defer s.m.RUnlock()
	ret := make([]int64, len(s.values))
	for i, v := range s.values {
		switch x := v.(type) {
		case metrics.Counter:
			ret[i] = x.Count()
		case metrics.Gauge:
			ret[i] = x.Value()
		}
	}
	return ret
}

// Snapshot returns the current values keyed by metric name.
func (s *Stats) Snapshot() map[string]int64 {
	values := s.Values()
	m := make(map[string]int64, len(values))
	for i, v := range values {
		m[names[i].name] = v
	}
	return m
}
