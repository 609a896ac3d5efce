package affiliate

import (
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/platform"
	"github.com/IshaanNene/dealcard/internal/types"
)

var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term", "fbclid", "gclid"}

// Converter rewrites resolved URLs into affiliate links using per-platform
// rules. A missing rule is not an error: the link passes through unconverted.
type Converter struct {
	mu     sync.RWMutex
	rules  map[string]Rule
	logger *slog.Logger
}

// Option configures a Converter.
type Option func(*options)

type options struct {
	registry *platform.Registry
}

// WithRegistry sets the platform registry whose affiliate-supported
// profiles fall back to CueLinks. The built-in registry is used otherwise.
func WithRegistry(r *platform.Registry) Option {
	return func(o *options) { o.registry = r }
}

// NewConverter registers the built-in rules enabled by cfg. Networks whose
// ID is empty are left out.
func NewConverter(cfg config.AffiliateConfig, logger *slog.Logger, opts ...Option) *Converter {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = platform.DefaultRegistry()
	}

	c := &Converter{
		rules:  make(map[string]Rule),
		logger: logger.With("component", "affiliate_converter"),
	}
	campaign := utm{source: cfg.UTMSource, medium: cfg.UTMMedium, campaign: cfg.UTMCampaign}

	if cfg.AmazonTag != "" {
		c.Register("amazon", amazonRule{tag: cfg.AmazonTag, utm: campaign})
	}
	if cfg.FlipkartID != "" {
		params := map[string]string{
			"affid":        cfg.FlipkartID,
			"affExtParam2": "product_link",
		}
		if cfg.UTMSource != "" {
			params["affExtParam1"] = cfg.UTMSource + "_affiliate"
		}
		c.Register("flipkart", paramRule{network: NetworkFlipkart, params: params, utm: campaign})
	}
	if cfg.DeodapTag != "" {
		c.Register("deodap", paramRule{network: NetworkDeodap, params: map[string]string{"ref": cfg.DeodapTag}})
	}
	// Every other affiliate-supported platform goes through CueLinks.
	if cfg.CuelinksID != "" {
		for _, p := range o.registry.List() {
			if !p.AffiliateSupported || p.Platform == types.GenericPlatform {
				continue
			}
			if _, ok := c.rules[p.Platform]; !ok {
				c.Register(p.Platform, cuelinksRule(cfg.CuelinksID))
			}
		}
	}
	// EarnKaro is opted into per platform and overrides CueLinks.
	if cfg.EarnKaroID != "" {
		for _, p := range cfg.EarnKaroPlatforms {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				c.Register(p, earnkaroRule(cfg.EarnKaroID))
			}
		}
	}

	c.logger.Debug("affiliate rules registered", "platforms", c.Platforms())
	return c
}

// Register adds or replaces the rule for a platform.
func (c *Converter) Register(platform string, r Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules[platform] = r
}

// Platforms returns the platforms that have a rule, sorted.
func (c *Converter) Platforms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.rules))
	for p := range c.rules {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Network returns the network that would convert links for platform.
func (c *Converter) Network(platform string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rules[platform]
	if !ok {
		return "", false
	}
	return r.Network(), true
}

// Convert rewrites a resolved URL for its platform. AffiliateURL is never
// empty: without a usable rule the resolved URL comes back with
// IsConverted=false.
func (c *Converter) Convert(resolved types.ResolvedURL, info types.PlatformInfo) types.ConvertedLink {
	target := resolved.FinalURL
	if target == "" {
		target = resolved.OriginalURL
	}
	passthrough := types.ConvertedLink{AffiliateURL: target}

	c.mu.RLock()
	rule, ok := c.rules[info.Platform]
	c.mu.RUnlock()
	if !ok {
		return passthrough
	}

	u, err := url.Parse(CleanURL(target))
	if err != nil || u.Host == "" {
		return passthrough
	}

	affiliateURL, err := rule.Rewrite(u, info)
	if err != nil || affiliateURL == "" {
		c.logger.Debug("affiliate rule skipped", "platform", info.Platform, "network", rule.Network(), "error", err)
		return passthrough
	}

	rate := CommissionRate(info.Platform)
	if rate == 0 {
		rate = CommissionRate(strings.ToLower(rule.Network()))
	}

	return types.ConvertedLink{
		AffiliateURL:     affiliateURL,
		IsConverted:      true,
		AffiliateNetwork: rule.Network(),
		CommissionRate:   rate,
	}
}

// CleanURL drops tracking parameters (utm_*, fbclid, gclid). Unparsable
// input is returned unchanged.
func CleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
