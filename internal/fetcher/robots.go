package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker caches robots.txt rules per origin.
type RobotsChecker struct {
	client   *http.Client
	cacheTTL time.Duration

	mu     sync.RWMutex
	rules  map[string]*robotstxt.RobotsData
	expiry map[string]time.Time
}

// NewRobotsChecker creates a checker that fetches robots.txt with client.
func NewRobotsChecker(client *http.Client, ttl time.Duration) *RobotsChecker {
	return &RobotsChecker{
		client:   client,
		cacheTTL: ttl,
		rules:    make(map[string]*robotstxt.RobotsData),
		expiry:   make(map[string]time.Time),
	}
}

// Allowed reports whether userAgent may fetch u. Unreachable or broken
// robots.txt files allow the fetch.
func (r *RobotsChecker) Allowed(ctx context.Context, userAgent string, u *url.URL) bool {
	origin := u.Scheme + "://" + u.Host
	data, err := r.get(ctx, origin)
	if err != nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, userAgent)
}

func (r *RobotsChecker) get(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.rules[origin]
	exp := r.expiry[origin]
	r.mu.RUnlock()
	if ok && time.Now().Before(exp) {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}
	data, err = robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.rules[origin] = data
	r.expiry[origin] = time.Now().Add(r.cacheTTL)
	r.mu.Unlock()
	return data, nil
}
