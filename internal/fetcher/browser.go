package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/types"
)

// BrowserFetcher renders JS-heavy product pages in headless Chromium.
type BrowserFetcher struct {
	browser      *rod.Browser
	cfg          config.BrowserConfig
	fingerprints *FingerprintPool
	slots        chan struct{}
	logger       *slog.Logger
}

// NewBrowserFetcher launches Chromium and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", "1366,768")

	if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
		if proxy := NewProxyManager(&cfg.Proxy, logger).Next(); proxy != nil {
			l = l.Proxy(proxy.String())
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	bf := &BrowserFetcher{
		browser:      browser,
		cfg:          cfg.Browser,
		fingerprints: NewFingerprintPool(cfg.Fetcher.UserAgents),
		slots:        make(chan struct{}, cfg.Browser.MaxPages),
		logger:       logger.With("component", "browser_fetcher"),
	}
	bf.logger.Info("browser fetcher ready", "max_pages", cfg.Browser.MaxPages, "stealth", cfg.Browser.Stealth)
	return bf, nil
}

// Fetch navigates to the request URL and returns the rendered HTML.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	target := req.URLString()

	select {
	case bf.slots <- struct{}{}:
		defer func() { <-bf.slots }()
	case <-ctx.Done():
		return nil, &types.FetchError{URL: target, Err: ctx.Err()}
	}

	start := time.Now()
	page, err := bf.newPage()
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err, Retryable: true}
	}
	defer page.Close()

	timeout := bf.cfg.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	page = page.Context(ctx).Timeout(timeout)

	fp := bf.fingerprints.Random()
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: fp.UserAgent}); err != nil {
		bf.logger.Warn("failed to set user agent", "error", err)
	}

	if err := page.Navigate(target); err != nil {
		return nil, &types.FetchError{URL: target, Err: err, Retryable: true}
	}
	if err := page.WaitStable(500 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", target, "error", err)
	}
	if req.WaitSelector != "" {
		if _, err := page.Element(req.WaitSelector); err != nil {
			bf.logger.Warn("wait selector not found", "selector", req.WaitSelector, "error", err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err, Retryable: true}
	}

	finalURL := target
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	bf.logger.Debug("browser fetch complete", "url", target, "final_url", finalURL, "size", len(html), "duration", duration)

	// rod does not surface the document status; a rendered DOM counts as 200.
	return types.NewBrowserResponse(req, 200, []byte(html), finalURL, duration), nil
}

func (bf *BrowserFetcher) newPage() (*rod.Page, error) {
	if bf.cfg.Stealth {
		return stealth.Page(bf.browser)
	}
	return bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}

// Close shuts down the browser.
func (bf *BrowserFetcher) Close() error {
	return bf.browser.Close()
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}
