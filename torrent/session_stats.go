package torrent

import (
	"github.com/Falcosc/libtorrent/internal/sessionstats"
)

// StatsMetric describes a value of SessionStatsAlert.
type StatsMetric = sessionstats.Metric

// MetricType tells whether a metric is a counter or a gauge.
type MetricType = sessionstats.Type

// Metric types.
const (
	CounterMetric = sessionstats.Counter
	GaugeMetric   = sessionstats.Gauge
)

// SessionStatsMetrics returns every metric reported in SessionStatsAlert.
func SessionStatsMetrics() []StatsMetric {
	return sessionstats.Metrics()
}

// FindMetricIdx returns the value index of the metric with name or -1.
func FindMetricIdx(name string) int {
	return sessionstats.Find(name)
}

// PostSessionStats posts a SessionStatsAlert with the current value of every metric.
func (s *Session) PostSessionStats() {
	s.updateGauges()
	s.post(&SessionStatsAlert{
		alertBase: newAlertBase(),
		Values:    s.stats.Snapshot(),
		Counters:  s.stats.Values(),
	})
}

func (s *Session) registerGauges() {
	s.stats.SetFunc("alerts.dropped_alerts", s.alerts.Dropped)
	s.stats.SetFunc("net.limiter_down_bytes", func() int64 {
		down, _ := s.rateLimiters()
		if down == nil {
			return 0
		}
		return down.Available()
	})
	s.stats.SetFunc("net.limiter_up_bytes", func() int64 {
		_, up := s.rateLimiters()
		if up == nil {
			return 0
		}
		return up.Available()
	})
}

func (s *Session) updateGauges() {
	var downloading, seeding, finished, paused, errored, havePieces, connected, banned, public int64
	torrents := s.torrentList()
	for _, t := range torrents {
		t.m.RLock()
		switch {
		case t.err != nil:
			errored++
		case t.paused:
			paused++
		case t.state == Seeding:
			seeding++
		case t.state == Finished:
			finished++
		default:
			downloading++
		}
		havePieces += int64(t.bitfield.Count())
		connected += int64(len(t.connected))
		banned += int64(t.banned.Len())
		if t.info == nil || !t.info.Info.Private {
			public++
		}
		t.m.RUnlock()
	}
	s.stats.Set("ses.num_downloading_torrents", downloading)
	s.stats.Set("ses.num_seeding_torrents", seeding)
	s.stats.Set("ses.num_upload_only_torrents", finished)
	s.stats.Set("ses.num_stopped_torrents", paused)
	s.stats.Set("ses.num_error_torrents", errored)
	s.stats.Set("ses.num_have_pieces", havePieces)
	s.stats.Set("peer.num_peers_connected", connected)
	s.stats.Set("peer.num_banned_peers", banned)
	if s.dht != nil {
		s.stats.Set("dht.dht_torrents", public)
	}
}
