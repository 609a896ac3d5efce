package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/types"
)

// DefaultShorteners are the link-shortening hosts whose URLs get unwrapped.
var DefaultShorteners = []string{
	"bit.ly", "tinyurl.com", "amzn.to", "fkrt.it", "bitli.in", "goo.gl", "t.co",
	"short.link", "cutt.ly", "rb.gy", "is.gd", "v.gd", "ow.ly", "buff.ly",
	"amzn.in", "dl.flipkart.com", "myntr.it", "ekaro.in", "linksredirect.com",
}

const resolverUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"

// Resolver unwraps shortened links by walking their redirects.
type Resolver struct {
	transport    http.RoundTripper
	noFollow     *http.Client
	shorteners   []string
	maxRedirects int
	timeout      time.Duration
	logger       *slog.Logger
}

// New creates a Resolver from configuration.
func New(cfg config.ResolverConfig, logger *slog.Logger) *Resolver {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
	}

	shorteners := append([]string(nil), DefaultShorteners...)
	for _, s := range cfg.ExtraShorteners {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			shorteners = append(shorteners, s)
		}
	}

	return &Resolver{
		transport: transport,
		noFollow: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		shorteners:   shorteners,
		maxRedirects: cfg.MaxRedirects,
		timeout:      cfg.Timeout,
		logger:       logger.With("component", "url_resolver"),
	}
}

// Shorteners returns the shortener hosts this resolver recognises.
func (r *Resolver) Shorteners() []string {
	return append([]string(nil), r.shorteners...)
}

// IsShortener reports whether rawURL points at a known shortener host.
func (r *Resolver) IsShortener(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	return r.isShortenerHost(u.Hostname())
}

func (r *Resolver) isShortenerHost(host string) bool {
	host = strings.ToLower(host)
	for _, s := range r.shorteners {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

// Resolve follows a shortened URL to its destination. It never fails: on
// any error the original string comes back as the final URL with no
// shortener flagged, since an unresolved link may still be scrapable.
func (r *Resolver) Resolve(ctx context.Context, raw string) types.ResolvedURL {
	raw = strings.TrimSpace(raw)
	direct := types.ResolvedURL{
		OriginalURL:   raw,
		FinalURL:      raw,
		RedirectChain: []string{raw},
	}

	start, err := url.Parse(raw)
	if err != nil || (start.Scheme != "http" && start.Scheme != "https") || start.Host == "" {
		r.logger.Debug("not an absolute URL, skipping resolution", "url", raw)
		return direct
	}
	if !r.isShortenerHost(start.Hostname()) {
		return direct
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	final, chain, err := r.walkHead(ctx, start)
	if err != nil {
		r.logger.Debug("HEAD walk failed, retrying with GET", "url", raw, "error", err)
		final, chain, err = r.followGet(ctx, start)
	}
	if err != nil {
		r.logger.Warn("resolution failed, using original URL", "url", raw, "error", err)
		return direct
	}

	r.logger.Debug("resolved shortened URL", "url", raw, "final", final, "hops", len(chain)-1)
	return types.ResolvedURL{
		OriginalURL:       raw,
		FinalURL:          final,
		RedirectChain:     chain,
		ShortenerDetected: true,
	}
}

// walkHead follows Location headers one hop at a time with HEAD requests.
func (r *Resolver) walkHead(ctx context.Context, start *url.URL) (string, []string, error) {
	current := start
	chain := []string{start.String()}

	for hop := 0; hop < r.maxRedirects; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, current.String(), nil)
		if err != nil {
			return "", nil, err
		}
		req.Header.Set("User-Agent", resolverUserAgent)

		resp, err := r.noFollow.Do(req)
		if err != nil {
			return "", nil, err
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 300 && resp.StatusCode < 400:
			loc := resp.Header.Get("Location")
			if loc == "" {
				return current.String(), chain, nil
			}
			next, err := current.Parse(loc)
			if err != nil {
				return "", nil, fmt.Errorf("bad Location %q: %w", loc, err)
			}
			current = next
			chain = append(chain, current.String())
		case resp.StatusCode >= 400:
			return "", nil, fmt.Errorf("HEAD %s: status %d", current, resp.StatusCode)
		default:
			return current.String(), chain, nil
		}
	}

	// Hop cap reached; the last Location is the best answer available.
	return current.String(), chain, nil
}

// followGet lets net/http follow redirects with GET, recording each hop.
func (r *Resolver) followGet(ctx context.Context, start *url.URL) (string, []string, error) {
	chain := []string{start.String()}
	client := &http.Client{
		Transport: r.transport,
		Timeout:   r.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= r.maxRedirects {
				return http.ErrUseLastResponse
			}
			chain = append(chain, req.URL.String())
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, start.String(), nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("User-Agent", resolverUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", nil, err
	}
	resp.Body.Close()

	return resp.Request.URL.String(), chain, nil
}
