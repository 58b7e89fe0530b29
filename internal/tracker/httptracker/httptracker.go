// Package httptracker implements the scrape convention of HTTP trackers.
package httptracker

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Falcosc/libtorrent/internal/logger"
	"github.com/Falcosc/libtorrent/internal/tracker"
	"github.com/cenkalti/backoff/v3"
	"github.com/zeebo/bencode"
)

// HTTPTracker scrapes a single HTTP tracker.
type HTTPTracker struct {
	rawURL    string
	scrapeURL *url.URL
	log       logger.Logger
	http      *http.Client
	transport *http.Transport
	userAgent string
	maxSize   int64
	retry     func() backoff.BackOff
}

var _ tracker.Scraper = (*HTTPTracker)(nil)

// New returns a tracker for the announce URL rawURL.
// Trackers whose announce path does not end with "announce" cannot be scraped.
func New(rawURL string, timeout time.Duration, userAgent string, maxResponseLength int64) (*HTTPTracker, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	su, err := ScrapeURL(u)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: timeout,
		}).DialContext,
		TLSHandshakeTimeout: timeout,
		DisableKeepAlives:   true,
	}
	return &HTTPTracker{
		rawURL:    rawURL,
		scrapeURL: su,
		log:       logger.New("tracker " + rawURL),
		transport: transport,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: userAgent,
		maxSize:   maxResponseLength,
		retry: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = time.Second
			bo.MaxElapsedTime = 0
			return backoff.WithMaxRetries(bo, 2)
		},
	}, nil
}

// ScrapeURL converts an announce URL into a scrape URL.
func ScrapeURL(u *url.URL) (*url.URL, error) {
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", tracker.ErrNotScrapable, u.Scheme)
	}
	i := strings.LastIndexByte(u.Path, '/')
	if i < 0 || !strings.HasPrefix(u.Path[i+1:], "announce") {
		return nil, tracker.ErrNotScrapable
	}
	su := *u
	su.Path = u.Path[:i+1] + "scrape" + strings.TrimPrefix(u.Path[i+1:], "announce")
	return &su, nil
}

// URL returns the announce URL of the tracker.
func (t *HTTPTracker) URL() string {
	return t.rawURL
}

// Scrape requests statistics of a single torrent. Transient failures are retried.
func (t *HTTPTracker) Scrape(ctx context.Context, infoHash [20]byte) (*tracker.ScrapeResponse, error) {
	var ret *tracker.ScrapeResponse
	op := func() error {
		r, err := t.scrape(ctx, infoHash)
		if err != nil {
			t.log.Debugln("scrape error:", err)
			return err
		}
		ret = r
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(t.retry(), ctx))
	return ret, err
}

func (t *HTTPTracker) scrape(ctx context.Context, infoHash [20]byte) (*tracker.ScrapeResponse, error) {
	u := *t.scrapeURL
	q := u.Query()
	q.Set("info_hash", string(infoHash[:]))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		serr := &StatusError{Code: resp.StatusCode, Header: resp.Header, Body: string(data)}
		if resp.StatusCode < 500 {
			return nil, backoff.Permanent(serr)
		}
		return nil, serr
	}

	var response scrapeResponse
	err = bencode.NewDecoder(io.LimitReader(resp.Body, t.maxSize)).Decode(&response)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", tracker.ErrDecode, err))
	}
	if response.FailureReason != "" {
		return nil, backoff.Permanent(&tracker.Error{FailureReason: response.FailureReason})
	}
	f, ok := response.Files[string(infoHash[:])]
	if !ok {
		return nil, backoff.Permanent(fmt.Errorf("%w: torrent not in scrape response", tracker.ErrDecode))
	}
	return &tracker.ScrapeResponse{
		Complete:   f.Complete,
		Incomplete: f.Incomplete,
		Downloaded: f.Downloaded,
	}, nil
}

// Close releases idle connections.
func (t *HTTPTracker) Close() error {
	t.transport.CloseIdleConnections()
	return nil
}
