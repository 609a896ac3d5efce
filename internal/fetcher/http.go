package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/publicsuffix"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/types"
)

type proxyKey struct{}

// HTTPFetcher implements Fetcher using net/http with browser-like
// fingerprints, a per-domain limiter and an optional robots.txt gate.
type HTTPFetcher struct {
	client       *http.Client
	cfg          *config.FetcherConfig
	fingerprints *FingerprintPool
	limiter      *DomainLimiter
	robots       *RobotsChecker
	proxyMgr     *ProxyManager
	logger       *slog.Logger
}

// NewHTTPFetcher creates a new HTTP fetcher.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.Fetcher.MaxIdleConns,
		MaxIdleConnsPerHost: max(cfg.Fetcher.MaxIdleConns/2, 1),
		IdleConnTimeout:     cfg.Fetcher.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Fetcher.TLSInsecure,
		},
		DisableCompression: true, // decoded in decompressReader, including brotli
	}

	f := &HTTPFetcher{
		cfg:          &cfg.Fetcher,
		fingerprints: NewFingerprintPool(cfg.Fetcher.UserAgents),
		limiter:      NewDomainLimiter(cfg.Fetcher.DomainRPS, cfg.Fetcher.DomainBurst),
		logger:       logger.With("component", "http_fetcher"),
	}

	if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
		f.proxyMgr = NewProxyManager(&cfg.Proxy, logger)
		transport.Proxy = func(r *http.Request) (*url.URL, error) {
			u, _ := r.Context().Value(proxyKey{}).(*url.URL)
			return u, nil
		}
	}

	maxRedirects := cfg.Fetcher.MaxRedirects
	f.client = &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   cfg.Fetcher.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("max redirects (%d) reached", maxRedirects)
			}
			return nil
		},
	}

	if cfg.Fetcher.RespectRobotsTxt {
		f.robots = NewRobotsChecker(&http.Client{Transport: transport, Timeout: 10 * time.Second}, time.Hour)
	}

	return f, nil
}

// Fetch executes a GET with a random browser fingerprint and returns the
// decoded page. Non-2xx statuses other than 429 and 5xx come back as a
// Response so callers can decide what to do with them.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	target := req.URLString()
	fp := f.fingerprints.Random()

	if f.robots != nil && !f.robots.Allowed(ctx, fp.UserAgent, req.URL) {
		return nil, &types.FetchError{URL: target, Err: types.ErrBlocked}
	}

	if err := f.limiter.Wait(ctx, req.Domain()); err != nil {
		return nil, &types.FetchError{URL: target, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var proxy *url.URL
	if f.proxyMgr != nil {
		if proxy = f.proxyMgr.Next(); proxy == nil {
			return nil, &types.FetchError{URL: target, Err: types.ErrProxyExhausted}
		}
		ctx = context.WithValue(ctx, proxyKey{}, proxy)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}

	httpReq.Header = fp.Headers
	httpReq.Header.Set("User-Agent", fp.UserAgent)
	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Set(key, v)
		}
	}

	start := time.Now()
	httpResp, err := f.client.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		retryable := isRetryableError(err)
		if proxy != nil && retryable {
			f.proxyMgr.MarkFailed(proxy, err)
		}
		return nil, &types.FetchError{URL: target, Err: err, Retryable: retryable}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(httpResp.Header.Get("Retry-After"))
		return nil, &types.FetchError{
			URL:        target,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("rate limited (retry after %s)", retryAfter),
			Retryable:  true,
			RetryAfter: retryAfter,
		}
	}
	if httpResp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, &types.FetchError{
			URL:        target,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body))),
			Retryable:  true,
		}
	}

	decoded, err := decompressReader(httpResp.Header.Get("Content-Encoding"), httpResp.Body)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err}
	}
	defer decoded.Close()

	var reader io.Reader = decoded
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: target, Err: err, Retryable: true}
	}
	if len(body) == 0 {
		return nil, &types.FetchError{URL: target, StatusCode: httpResp.StatusCode, Err: types.ErrEmptyResponse}
	}

	resp := types.NewResponse(req, httpResp, body, duration)

	f.logger.Debug("fetch complete",
		"url", target,
		"platform", req.Platform,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", duration,
	)

	return resp, nil
}

// Close releases resources.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Type returns the fetcher type identifier.
func (f *HTTPFetcher) Type() string {
	return "http"
}

// decompressReader wraps r with the decoder for a Content-Encoding. The
// caller closes the result; closing it does not close r.
func decompressReader(encoding string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		return gzip.NewReader(r)
	case "deflate":
		return flate.NewReader(r), nil
	case "br":
		return io.NopCloser(brotli.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// isRetryableError checks if a network error is transient.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED)
}

// parseRetryAfter parses the Retry-After header value, capped at two minutes.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		return min(time.Duration(secs)*time.Second, 2*time.Minute)
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return time.Second
		}
		return min(d, 2*time.Minute)
	}
	return 5 * time.Second
}
