package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrInvalidURL     = errors.New("invalid URL")
	ErrBlocked        = errors.New("blocked by robots.txt")
	ErrEmptyResponse  = errors.New("empty response body")
	ErrNoProductData  = errors.New("no product name and price found")
	ErrNoFetcher      = errors.New("no fetcher available for request")
	ErrNoStore        = errors.New("no content store configured")
	ErrProxyExhausted = errors.New("all proxies exhausted")
)

// FetchError wraps errors that occur while fetching a page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ScrapeError reports why a page produced no usable product.
type ScrapeError struct {
	URL      string
	Platform string
	Missing  []string // fields no candidate could extract
	Err      error
}

func (e *ScrapeError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("scrape error for %s (platform=%s, missing=%v): %v", e.URL, e.Platform, e.Missing, e.Err)
	}
	return fmt.Sprintf("scrape error for %s (platform=%s): %v", e.URL, e.Platform, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur while persisting a card.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors raised by a pipeline stage.
type PipelineError struct {
	Stage string
	URL   string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
