package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IshaanNene/dealcard/internal/fetcher"
	"github.com/IshaanNene/dealcard/internal/platform"
	"github.com/IshaanNene/dealcard/internal/types"
)

// Scraper fetches product pages and extracts product attributes with
// platform-aware strategies.
type Scraper struct {
	registry *platform.Registry
	http     fetcher.Fetcher
	browser  fetcher.Fetcher

	mu         sync.RWMutex
	strategies map[string]Strategy
	generic    Strategy

	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithBrowser sets the fetcher used for platforms that need rendering.
func WithBrowser(f fetcher.Fetcher) Option {
	return func(s *Scraper) { s.browser = f }
}

// WithStrategy overrides the extraction strategy for one platform.
func WithStrategy(platformTag string, st Strategy) Option {
	return func(s *Scraper) { s.strategies[platformTag] = st }
}

// WithTimeout bounds each page fetch.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) { s.timeout = d }
}

// New creates a Scraper with one selector strategy per registered profile.
func New(registry *platform.Registry, httpFetcher fetcher.Fetcher, logger *slog.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		registry:   registry,
		http:       httpFetcher,
		strategies: make(map[string]Strategy),
		logger:     logger.With("component", "scraper"),
	}

	for _, p := range registry.List() {
		if p.Platform == types.GenericPlatform {
			s.generic = NewSelectorStrategy(p.Selectors)
			continue
		}
		s.strategies[p.Platform] = NewSelectorStrategy(p.Selectors)
	}
	if s.generic == nil {
		s.generic = NewSelectorStrategy(platform.Selectors{})
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterStrategy adds or replaces the strategy for a platform.
func (s *Scraper) RegisterStrategy(platformTag string, st Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies[platformTag] = st
}

func (s *Scraper) strategyFor(platformTag string) Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.strategies[platformTag]; ok {
		return st
	}
	return s.generic
}

// ScrapeProduct detects the platform of a resolved URL and scrapes it.
func (s *Scraper) ScrapeProduct(ctx context.Context, resolved types.ResolvedURL) types.ScrapedProduct {
	return s.ScrapeWith(ctx, resolved, s.registry.Detect(resolved))
}

// ScrapeWith scrapes a resolved URL whose platform is already known.
// It never panics; every failure comes back with Success=false.
func (s *Scraper) ScrapeWith(ctx context.Context, resolved types.ResolvedURL, info types.PlatformInfo) (product types.ScrapedProduct) {
	target := resolved.FinalURL
	if target == "" {
		target = resolved.OriginalURL
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scraper panic", "url", target, "panic", r)
			product = failed(info, fmt.Errorf("scraper panic: %v", r))
		}
	}()

	req, err := types.NewRequest(target)
	if err != nil {
		return failed(info, err)
	}
	req.Platform = info.Platform
	req.Timeout = s.timeout
	if profile, ok := s.registry.Get(info.Platform); ok {
		req.WaitSelector = profile.WaitSelector
	}

	resp, err := s.fetch(ctx, req, info)
	if err != nil {
		s.logger.Warn("fetch failed", "url", target, "platform", info.Platform, "error", err)
		return failed(info, err)
	}
	if !resp.IsSuccess() {
		return failed(info, &types.FetchError{URL: target, StatusCode: resp.StatusCode, Err: errors.New("unexpected status")})
	}

	doc, err := NewDocument(resp)
	if err != nil {
		return failed(info, &types.ScrapeError{URL: target, Platform: info.Platform, Err: err})
	}

	product = s.strategyFor(info.Platform).Extract(doc, info)
	if !product.Success {
		s.logger.Info("no product data", "url", target, "platform", info.Platform, "error", product.Error)
		if product.Error == "" {
			product.Error = (&types.ScrapeError{URL: target, Platform: info.Platform, Err: types.ErrNoProductData}).Error()
		}
		return product
	}

	product.ProductID = platform.ProductID(info.Platform, doc.URL.String())
	if product.ProductID == "" {
		product.ProductID = platform.ProductID(info.Platform, target)
	}

	s.logger.Debug("product scraped",
		"url", target,
		"platform", info.Platform,
		"name", product.Name,
		"price", product.Price,
		"rendered", resp.Rendered,
	)
	return product
}

// fetch uses the browser for platforms that need it and falls back to
// plain HTTP when rendering fails or no browser is configured.
func (s *Scraper) fetch(ctx context.Context, req *types.Request, info types.PlatformInfo) (*types.Response, error) {
	if info.ScrapingStrategy == types.StrategyBrowser && s.browser != nil {
		resp, err := s.browser.Fetch(ctx, req)
		if err == nil {
			return resp, nil
		}
		s.logger.Warn("browser fetch failed, falling back to http", "url", req.URLString(), "error", err)
	}
	if s.http == nil {
		return nil, types.ErrNoFetcher
	}
	return s.http.Fetch(ctx, req)
}

func failed(info types.PlatformInfo, err error) types.ScrapedProduct {
	return types.ScrapedProduct{
		Success:      false,
		Platform:     info.Platform,
		PlatformName: info.PlatformName,
		Error:        err.Error(),
	}
}
