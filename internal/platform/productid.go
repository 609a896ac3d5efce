package platform

import (
	"regexp"
	"strings"
)

var (
	amazonIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})`),
		regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})`),
		regexp.MustCompile(`(?i)/product/([A-Z0-9]{10})`),
		regexp.MustCompile(`(?i)[?&]asin=([A-Z0-9]{10})`),
	}
	flipkartIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[?&]pid=([A-Z0-9]+)`),
		regexp.MustCompile(`/p/([a-zA-Z0-9]+)`),
	}
	myntraIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/([0-9]+)/buy`),
	}
	genericIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`product[/-]([a-zA-Z0-9]+)`),
		regexp.MustCompile(`item[/-]([a-zA-Z0-9]+)`),
	}
)

// ProductID extracts the platform's product identifier from a URL, or ""
// when none is recognisable. Amazon ASINs are matched in any case and
// returned upper-cased.
func ProductID(platform, rawURL string) string {
	var patterns []*regexp.Regexp
	switch platform {
	case "amazon":
		patterns = amazonIDPatterns
	case "flipkart":
		patterns = flipkartIDPatterns
	case "myntra":
		patterns = myntraIDPatterns
	default:
		patterns = genericIDPatterns
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(rawURL); len(m) > 1 {
			if platform == "amazon" {
				return strings.ToUpper(m[1])
			}
			return m[1]
		}
	}
	return ""
}
