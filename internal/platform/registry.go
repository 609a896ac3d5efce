package platform

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/IshaanNene/dealcard/internal/types"
)

// Selectors are the ordered CSS selector candidates per product field.
// Earlier entries win.
type Selectors struct {
	Title         []string `json:"title,omitempty"`
	Price         []string `json:"price,omitempty"`
	OriginalPrice []string `json:"originalPrice,omitempty"`
	Image         []string `json:"image,omitempty"`
	Description   []string `json:"description,omitempty"`
	Rating        []string `json:"rating,omitempty"`
	ReviewCount   []string `json:"reviewCount,omitempty"`
	Discount      []string `json:"discount,omitempty"`
}

// Profile describes a known e-commerce or travel platform.
type Profile struct {
	Platform           string    `json:"platform"`
	Name               string    `json:"platformName"`
	Domains            []string  `json:"domains"`
	AffiliateSupported bool      `json:"affiliateSupported"`
	Strategy           string    `json:"scrapingStrategy"`
	Selectors          Selectors `json:"-"`
	// WaitSelector is the element a headless render waits for.
	WaitSelector string `json:"-"`
}

// Registry maps platform tags to profiles. Detection walks profiles in
// registration order, so more specific domains must be registered first.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	profiles map[string]Profile
	generic  Profile
}

// NewRegistry creates an empty registry whose fallback is the generic profile.
func NewRegistry() *Registry {
	return &Registry{
		profiles: make(map[string]Profile),
		generic:  genericProfile(),
	}
}

// Register adds or replaces a profile.
func (r *Registry) Register(p Profile) error {
	if p.Platform == "" {
		return fmt.Errorf("platform tag is required")
	}
	if p.Platform == types.GenericPlatform {
		r.mu.Lock()
		r.generic = p
		r.mu.Unlock()
		return nil
	}
	if len(p.Domains) == 0 {
		return fmt.Errorf("platform %q has no domains", p.Platform)
	}
	if p.Strategy == "" {
		p.Strategy = types.StrategyDirect
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[p.Platform]; !exists {
		r.order = append(r.order, p.Platform)
	}
	r.profiles[p.Platform] = p
	return nil
}

// Get returns the profile for a platform tag. Unknown tags return the
// generic profile and false.
func (r *Registry) Get(platform string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.profiles[platform]; ok {
		return p, true
	}
	return r.generic, platform == types.GenericPlatform
}

// List returns every registered profile sorted by tag, followed by generic.
func (r *Registry) List() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, 0, len(r.profiles)+1)
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return append(out, r.generic)
}

// Detect classifies a resolved URL. It never fails: unmatched domains yield
// the generic profile with affiliate support disabled.
func (r *Registry) Detect(resolved types.ResolvedURL) types.PlatformInfo {
	target := resolved.FinalURL
	if target == "" {
		target = resolved.OriginalURL
	}
	host := hostOf(target)
	haystack := host
	if haystack == "" {
		haystack = strings.ToLower(target)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tag := range r.order {
		p := r.profiles[tag]
		for _, d := range p.Domains {
			if strings.Contains(haystack, d) {
				return p.info(host)
			}
		}
	}
	return r.generic.info(host)
}

func (p Profile) info(domain string) types.PlatformInfo {
	return types.PlatformInfo{
		Platform:             p.Platform,
		PlatformName:         p.Name,
		Domain:               domain,
		IsAffiliateSupported: p.AffiliateSupported,
		ScrapingStrategy:     p.Strategy,
	}
}

// hostOf returns the lower-cased hostname of rawURL, or "" when rawURL is
// not an absolute URL.
func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
