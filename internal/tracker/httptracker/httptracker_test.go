package httptracker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Falcosc/libtorrent/internal/tracker"
	"github.com/cenkalti/backoff/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/bencode"
)

const timeout = 2 * time.Second

var infoHash = [20]byte{6}

func newTracker(t *testing.T, rawURL string) *HTTPTracker {
	trk, err := New(rawURL, timeout, "test-agent", 1<<20)
	require.NoError(t, err)
	trk.retry = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	return trk
}

func TestScrapeURL(t *testing.T) {
	cases := map[string]string{
		"http://example.com/announce":          "http://example.com/scrape",
		"http://example.com/x/announce":        "http://example.com/x/scrape",
		"http://example.com/announce.php":      "http://example.com/scrape.php",
		"https://example.com/announce?passkey": "https://example.com/scrape?passkey",
	}
	for in, out := range cases {
		u, _ := url.Parse(in)
		su, err := ScrapeURL(u)
		require.NoError(t, err, in)
		assert.Equal(t, out, su.String())
	}
	for _, in := range []string{"http://example.com/a", "udp://example.com:80/announce", "http://example.com/x/annnounce"} {
		u, _ := url.Parse(in)
		_, err := ScrapeURL(u)
		assert.ErrorIs(t, err, tracker.ErrNotScrapable, in)
	}
}

func TestScrape(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "test-agent", r.UserAgent())
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		ih := r.URL.Query().Get("info_hash")
		b, err := bencode.EncodeBytes(scrapeResponse{
			Files: map[string]scrapeFile{ih: {Complete: 3, Incomplete: 2, Downloaded: 10}},
		})
		if err != nil {
			t.Error(err)
		}
		_, _ = w.Write(b)
	}))
	defer srv.Close()

	trk := newTracker(t, srv.URL+"/announce")
	defer trk.Close()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	resp, err := trk.Scrape(ctx, infoHash)
	require.NoError(t, err)
	assert.Equal(t, &tracker.ScrapeResponse{Complete: 3, Incomplete: 2, Downloaded: 10}, resp)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestScrapeFailureReason(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("d14:failure reason9:forbiddene"))
	}))
	defer srv.Close()

	trk := newTracker(t, srv.URL+"/announce")
	_, err := trk.Scrape(context.Background(), infoHash)
	var terr *tracker.Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "forbidden", terr.FailureReason)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestScrapeStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	trk := newTracker(t, srv.URL+"/announce")
	_, err := trk.Scrape(context.Background(), infoHash)
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusNotFound, serr.Code)
}

func TestScrapeMissingTorrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("d5:filesdee"))
	}))
	defer srv.Close()

	trk := newTracker(t, srv.URL+"/announce")
	_, err := trk.Scrape(context.Background(), infoHash)
	assert.ErrorIs(t, err, tracker.ErrDecode)
}
