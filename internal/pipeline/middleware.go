package pipeline

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/IshaanNene/dealcard/internal/types"
)

// --- Sanitizing Middleware ---

// HTMLSanitizeMiddleware strips HTML tags and entities from the name,
// description and offer text.
type HTMLSanitizeMiddleware struct {
	stripRe *regexp.Regexp
}

func NewHTMLSanitizeMiddleware() *HTMLSanitizeMiddleware {
	return &HTMLSanitizeMiddleware{
		stripRe: regexp.MustCompile(`<[^>]*>`),
	}
}

func (m *HTMLSanitizeMiddleware) Name() string { return "html_sanitize" }

func (m *HTMLSanitizeMiddleware) Process(p *types.ScrapedProduct) (*types.ScrapedProduct, error) {
	for _, f := range []*string{&p.Name, &p.Description, &p.LimitedOfferText} {
		if *f == "" {
			continue
		}
		cleaned := m.stripRe.ReplaceAllString(*f, "")
		cleaned = html.UnescapeString(cleaned)
		*f = strings.Join(strings.Fields(cleaned), " ")
	}
	return p, nil
}

// NameLengthMiddleware caps the product name at Max runes.
type NameLengthMiddleware struct {
	Max int
}

func (m *NameLengthMiddleware) Name() string { return "name_length" }

func (m *NameLengthMiddleware) Process(p *types.ScrapedProduct) (*types.ScrapedProduct, error) {
	if m.Max <= 0 || utf8.RuneCountInString(p.Name) <= m.Max {
		return p, nil
	}
	runes := []rune(p.Name)
	p.Name = strings.TrimSpace(string(runes[:m.Max]))
	return p, nil
}
