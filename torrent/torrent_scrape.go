package torrent

import (
	"strings"

	"github.com/Falcosc/libtorrent/internal/tracker"
	"github.com/Falcosc/libtorrent/internal/tracker/httptracker"
)

// scrapeURL returns the first HTTP tracker of the torrent.
func (t *torrent) scrapeURL() string {
	t.m.RLock()
	defer t.m.RUnlock()
	for _, tier := range t.trackers {
		for _, u := range tier {
			if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
				return u
			}
		}
	}
	return ""
}

func (t *torrent) scrapeTracker() {
	u := t.scrapeURL()
	if u == "" {
		t.scrapeFailed("", tracker.ErrNotScrapable)
		return
	}
	s := t.session
	tr, err := httptracker.New(u, s.config.TrackerHTTPTimeout, s.userAgent(), s.trackerMaxResponseLength())
	if err != nil {
		t.scrapeFailed(u, err)
		return
	}
	started := s.goWorker(func(stopC chan struct{}) {
		defer tr.Close()
		s.stats.Inc("tracker.num_scrapes", 1)
		resp, err := tr.Scrape(t.ctx, t.infoHash)
		if err != nil {
			t.log.Debugln("scrape failed:", err.Error())
			t.scrapeFailed(u, err)
			return
		}
		s.post(&ScrapeReplyAlert{
			TorrentAlert: t.newAlert(),
			URL:          u,
			Complete:     resp.Complete,
			Incomplete:   resp.Incomplete,
			Downloaded:   resp.Downloaded,
		})
	})
	if !started {
		tr.Close()
		t.scrapeFailed(u, ErrSessionClosed)
	}
}

func (t *torrent) scrapeFailed(u string, err error) {
	t.session.stats.Inc("tracker.num_scrape_failures", 1)
	t.session.post(&ScrapeFailedAlert{TorrentAlert: t.newAlert(), URL: u, Err: err})
}
