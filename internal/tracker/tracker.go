// Package tracker contains the types shared by tracker clients.
package tracker

import (
	"context"
	"errors"
	"time"
)

// Scraper requests torrent statistics from a tracker.
type Scraper interface {
	// Scrape returns the swarm statistics of the torrent with infoHash.
	Scrape(ctx context.Context, infoHash [20]byte) (*ScrapeResponse, error)

	// URL of the tracker.
	URL() string
}

// ScrapeResponse contains swarm statistics of a torrent.
type ScrapeResponse struct {
	Complete   int32
	Incomplete int32
	Downloaded int32
}

// ErrNotScrapable is returned for trackers that do not support the scrape convention.
var ErrNotScrapable = errors.New("tracker does not support scrape")

// ErrDecode is returned when the tracker response cannot be parsed.
var ErrDecode = errors.New("cannot decode response")

// Error is the string that is sent by the tracker from announce or scrape.
type Error struct {
	FailureReason string
	RetryIn       time.Duration
}

func (e *Error) Error() string { return "tracker error: " + e.FailureReason }
