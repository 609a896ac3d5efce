package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MaxPrice is the sanity ceiling for a scraped price.
	MaxPrice = 1_000_000

	DefaultRating      = 4.0
	DefaultReviewCount = 100

	minDescriptionLen = 10
	maxDescriptionLen = 500

	rupee = "₹"
)

var (
	priceToken    = regexp.MustCompile(`(?:₹|Rs\.?|INR|\$)?\s*\d[\d,]*(?:\.\d+)?`)
	priceNumber   = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	ratingToken   = regexp.MustCompile(`\b([0-5](?:\.\d)?)\b`)
	reviewToken   = regexp.MustCompile(`\d+(?:,\d+)*`)
	discountToken = regexp.MustCompile(`(\d{1,2})\s*%`)

	badImagePatterns = []string{"placeholder", "loading", "spinner", "default", "blank"}
)

// CleanPrice normalises a scraped price to a symbol-prefixed decimal string
// such as "₹1999" or "$24.99". Tokens carrying a currency marker are
// preferred over bare numbers; a bare number gets the rupee symbol. Values
// that are zero or above MaxPrice are rejected. Cleaning a clean price
// returns it unchanged.
func CleanPrice(raw string) (string, bool) {
	tokens := priceToken.FindAllString(raw, -1)
	if len(tokens) == 0 {
		return "", false
	}

	token := tokens[0]
	for _, t := range tokens {
		if hasCurrencyMarker(t) {
			token = t
			break
		}
	}

	symbol := rupee
	if strings.Contains(token, "$") {
		symbol = "$"
	}

	digits := strings.ReplaceAll(priceNumber.FindString(token), ",", "")
	value, err := strconv.ParseFloat(digits, 64)
	if err != nil || value <= 0 || value > MaxPrice {
		return "", false
	}
	return symbol + digits, true
}

// ParsePrice returns the numeric value of a price string.
func ParsePrice(price string) (float64, bool) {
	digits := strings.ReplaceAll(priceNumber.FindString(price), ",", "")
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// CurrencyOf returns the ISO currency code for a cleaned price.
func CurrencyOf(price string) string {
	if strings.HasPrefix(price, "$") {
		return "USD"
	}
	return "INR"
}

func hasCurrencyMarker(token string) bool {
	return strings.ContainsAny(token, "₹$") || strings.HasPrefix(token, "Rs") || strings.HasPrefix(token, "INR")
}

// NormalizeImageURL validates an image reference and makes it absolute.
// Placeholder-looking and data: URLs are rejected; protocol-relative URLs
// get https; relative paths resolve against base.
func NormalizeImageURL(raw string, base *url.URL) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(strings.ToLower(raw), "data:") {
		return "", false
	}

	lower := strings.ToLower(raw)
	for _, p := range badImagePatterns {
		if strings.Contains(lower, p) {
			return "", false
		}
	}

	// srcset-style values: keep the first URL
	raw = strings.Fields(raw)[0]

	if strings.HasPrefix(raw, "//") {
		return "https:" + raw, true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", false
		}
		return u.String(), true
	}
	if base == nil || base.Host == "" {
		return "", false
	}
	return base.ResolveReference(u).String(), true
}

// ParseRating returns the first 0-5 rating token in raw.
func ParseRating(raw string) (float64, bool) {
	m := ratingToken.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 || v > 5 {
		return 0, false
	}
	return v, true
}

// ParseReviewCount returns the first grouped integer in raw.
func ParseReviewCount(raw string) (int, bool) {
	m := reviewToken.FindString(raw)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// CleanDescription trims a description, requires more than ten
// characters and cuts it to five hundred.
func CleanDescription(raw string) (string, bool) {
	v := collapseSpace(raw)
	if len([]rune(v)) <= minDescriptionLen {
		return "", false
	}
	if r := []rune(v); len(r) > maxDescriptionLen {
		v = strings.TrimSpace(string(r[:maxDescriptionLen]))
	}
	return v, true
}

// ParseDiscount reads a percentage like "33% off" or "-33%".
func ParseDiscount(raw string) (int, bool) {
	m := discountToken.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil || v <= 0 || v >= 100 {
		return 0, false
	}
	return v, true
}

// --- validators ---

func validPrice(raw string, _ *Document) (string, bool) { return CleanPrice(raw) }

func validImage(raw string, d *Document) (string, bool) {
	var base *url.URL
	if d != nil {
		base = d.URL
	}
	return NormalizeImageURL(raw, base)
}

func validDescription(raw string, _ *Document) (string, bool) { return CleanDescription(raw) }

func validRating(raw string, _ *Document) (string, bool) {
	v, ok := ParseRating(raw)
	if !ok {
		return "", false
	}
	return strconv.FormatFloat(v, 'f', -1, 64), true
}

func validReviewCount(raw string, _ *Document) (string, bool) {
	v, ok := ParseReviewCount(raw)
	if !ok {
		return "", false
	}
	return strconv.Itoa(v), true
}

func validDiscount(raw string, _ *Document) (string, bool) {
	v, ok := ParseDiscount(raw)
	if !ok {
		return "", false
	}
	return strconv.Itoa(v), true
}

func validName(raw string, _ *Document) (string, bool) {
	v := collapseSpace(raw)
	return v, len([]rune(v)) > 3
}
