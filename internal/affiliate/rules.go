package affiliate

import (
	"errors"
	"net/url"
	"regexp"

	"github.com/IshaanNene/dealcard/internal/platform"
	"github.com/IshaanNene/dealcard/internal/types"
)

// Network names reported on converted links.
const (
	NetworkAmazon   = "Amazon Associates"
	NetworkFlipkart = "Flipkart Affiliate"
	NetworkCuelinks = "CueLinks"
	NetworkEarnKaro = "EarnKaro"
	NetworkDeodap   = "Deodap"
	NetworkDirect   = "Direct"
)

const (
	cuelinksBase = "https://linksredirect.com/"
	earnkaroBase = "https://ekaro.in/enkr2020/"
)

var errNoASIN = errors.New("no ASIN in URL")

var asinPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Rule rewrites a cleaned product URL into an affiliate URL.
type Rule interface {
	Network() string
	Rewrite(u *url.URL, info types.PlatformInfo) (string, error)
}

// utm holds the campaign parameters appended by direct-program rules.
type utm struct {
	source, medium, campaign string
}

func (p utm) apply(q url.Values) {
	if p.source != "" {
		q.Set("utm_source", p.source)
	}
	if p.medium != "" {
		q.Set("utm_medium", p.medium)
	}
	if p.campaign != "" {
		q.Set("utm_campaign", p.campaign)
	}
}

// amazonRule builds an Associates link on the canonical /dp/ASIN path.
type amazonRule struct {
	tag string
	utm utm
}

func (r amazonRule) Network() string { return NetworkAmazon }

func (r amazonRule) Rewrite(u *url.URL, info types.PlatformInfo) (string, error) {
	asin := platform.ProductID("amazon", u.String())
	if !asinPattern.MatchString(asin) {
		return "", errNoASIN
	}

	out := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/dp/" + asin}
	if out.Scheme == "" {
		out.Scheme = "https"
	}
	q := url.Values{}
	q.Set("tag", r.tag)
	q.Set("linkCode", "as2")
	q.Set("camp", "1789")
	q.Set("creative", "9325")
	r.utm.apply(q)
	out.RawQuery = q.Encode()
	return out.String(), nil
}

// paramRule appends fixed query parameters to the product URL.
type paramRule struct {
	network string
	params  map[string]string
	utm     utm
}

func (r paramRule) Network() string { return r.network }

func (r paramRule) Rewrite(u *url.URL, info types.PlatformInfo) (string, error) {
	out := *u
	q := out.Query()
	for k, v := range r.params {
		q.Set(k, v)
	}
	r.utm.apply(q)
	out.RawQuery = q.Encode()
	return out.String(), nil
}

// wrapRule sends the product URL through a network redirector.
type wrapRule struct {
	network string
	base    string
	params  []string // key, value pairs placed before the wrapped url
	urlKey  string
}

func (r wrapRule) Network() string { return r.network }

func (r wrapRule) Rewrite(u *url.URL, info types.PlatformInfo) (string, error) {
	out, err := url.Parse(r.base)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	for i := 0; i+1 < len(r.params); i += 2 {
		q.Set(r.params[i], r.params[i+1])
	}
	q.Set(r.urlKey, u.String())
	out.RawQuery = q.Encode()
	return out.String(), nil
}

func cuelinksRule(cid string) Rule {
	return wrapRule{
		network: NetworkCuelinks,
		base:    cuelinksBase,
		params:  []string{"cid", cid, "source", "linkkit"},
		urlKey:  "url",
	}
}

func earnkaroRule(id string) Rule {
	return wrapRule{
		network: NetworkEarnKaro,
		base:    earnkaroBase,
		params:  []string{"ref", id},
		urlKey:  "url",
	}
}

// commissionRates are indicative percentages per platform or network.
var commissionRates = map[string]float64{
	"amazon":   4,
	"flipkart": 3,
	"myntra":   5,
	"nykaa":    6,
	"cuelinks": 2.5,
}

// CommissionRate returns the indicative commission percentage for a
// platform or network tag, or 0 when unknown.
func CommissionRate(key string) float64 {
	return commissionRates[key]
}
