package fetcher

import (
	"log/slog"
	"math/rand/v2"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/IshaanNene/dealcard/internal/config"
)

// ProxyManager rotates outbound proxies for page fetches.
type ProxyManager struct {
	mu       sync.RWMutex
	proxies  []*url.URL
	failed   map[string]bool
	rotation string
	index    atomic.Int64
	logger   *slog.Logger
}

// NewProxyManager creates a ProxyManager from configuration. Unparsable
// proxy URLs are skipped with a warning.
func NewProxyManager(cfg *config.ProxyConfig, logger *slog.Logger) *ProxyManager {
	pm := &ProxyManager{
		failed:   make(map[string]bool),
		rotation: cfg.Rotation,
		logger:   logger.With("component", "proxy_manager"),
	}
	for _, raw := range cfg.URLs {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			pm.logger.Warn("invalid proxy URL", "url", raw, "error", err)
			continue
		}
		pm.proxies = append(pm.proxies, u)
	}
	pm.logger.Info("proxy manager initialized", "count", len(pm.proxies), "rotation", cfg.Rotation)
	return pm
}

// Next returns the next healthy proxy, or nil when none are left.
func (pm *ProxyManager) Next() *url.URL {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	healthy := make([]*url.URL, 0, len(pm.proxies))
	for _, p := range pm.proxies {
		if !pm.failed[p.String()] {
			healthy = append(healthy, p)
		}
	}
	if len(healthy) == 0 {
		return nil
	}
	if pm.rotation == "random" {
		return healthy[rand.IntN(len(healthy))]
	}
	return healthy[pm.index.Add(1)%int64(len(healthy))]
}

// MarkFailed takes a proxy out of rotation.
func (pm *ProxyManager) MarkFailed(proxyURL *url.URL, err error) {
	if proxyURL == nil {
		return
	}
	pm.mu.Lock()
	pm.failed[proxyURL.String()] = true
	pm.mu.Unlock()
	pm.logger.Warn("proxy marked unhealthy", "proxy", proxyURL.Host, "error", err)
}

// HealthyCount returns the number of proxies still in rotation.
func (pm *ProxyManager) HealthyCount() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.proxies) - len(pm.failed)
}
