package fetcher

import (
	"math/rand/v2"
	"net/http"
	"strings"
)

// Fingerprint is a browser identity: a User-Agent plus the headers that
// browser actually sends with it.
type Fingerprint struct {
	UserAgent string
	Headers   http.Header
}

// FingerprintPool hands out random browser fingerprints.
type FingerprintPool struct {
	fingerprints []Fingerprint
}

// NewFingerprintPool creates a pool. When userAgents is non-empty those
// agents replace the built-in set, each paired with headers for its family.
func NewFingerprintPool(userAgents []string) *FingerprintPool {
	if len(userAgents) == 0 {
		return &FingerprintPool{fingerprints: defaultFingerprints()}
	}
	fps := make([]Fingerprint, 0, len(userAgents))
	for _, ua := range userAgents {
		h := chromeHeaders("133", `"Windows"`)
		if strings.Contains(ua, "Firefox/") {
			h = firefoxHeaders()
		}
		fps = append(fps, Fingerprint{UserAgent: ua, Headers: h})
	}
	return &FingerprintPool{fingerprints: fps}
}

// Random returns a fingerprint chosen uniformly at random.
func (fp *FingerprintPool) Random() Fingerprint {
	f := fp.fingerprints[rand.IntN(len(fp.fingerprints))]
	return Fingerprint{UserAgent: f.UserAgent, Headers: f.Headers.Clone()}
}

// Len returns the pool size.
func (fp *FingerprintPool) Len() int { return len(fp.fingerprints) }

func defaultFingerprints() []Fingerprint {
	return []Fingerprint{
		{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
			Headers:   chromeHeaders("133", `"Windows"`),
		},
		{
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
			Headers:   chromeHeaders("133", `"macOS"`),
		},
		{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
			Headers:   chromeHeaders("132", `"Linux"`),
		},
		{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
			Headers:   firefoxHeaders(),
		},
		{
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:135.0) Gecko/20100101 Firefox/135.0",
			Headers:   firefoxHeaders(),
		},
		{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36 Edg/133.0.0.0",
			Headers:   chromeHeaders("133", `"Windows"`),
		},
	}
}

func chromeHeaders(version, platform string) http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	h.Set("Accept-Language", "en-IN,en-GB;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Sec-Ch-Ua", `"Chromium";v="`+version+`", "Not(A:Brand";v="99", "Google Chrome";v="`+version+`"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", platform)
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

func firefoxHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-IN,en;q=0.5")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}
