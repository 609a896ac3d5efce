package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

// maxValuesPerCandidate bounds how many matches of one selector are
// offered to a validator before moving to the next candidate.
const maxValuesPerCandidate = 3

// Candidate is one way of locating a field on a page.
type Candidate struct {
	// Source names the candidate in logs and ScrapedProduct.Sources,
	// e.g. "css:#productTitle" or "jsonld:offers.price".
	Source  string
	extract func(d *Document) []string
}

// Values returns the raw values this candidate finds, in document order.
func (c Candidate) Values(d *Document) []string {
	if c.extract == nil || d == nil {
		return nil
	}
	return c.extract(d)
}

// CSS matches the trimmed text of elements selected by a CSS selector.
func CSS(selector string) Candidate {
	return Candidate{
		Source: "css:" + selector,
		extract: func(d *Document) []string {
			var values []string
			d.Doc.Find(selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
				if v := collapseSpace(sel.Text()); v != "" {
					values = append(values, v)
				}
				return len(values) < maxValuesPerCandidate
			})
			return values
		},
	}
}

// CSSAttr matches attributes of elements selected by a CSS selector. Every
// non-empty attribute in attrs is offered, in order, so a lazy-loading
// placeholder in src does not hide the real data-src.
func CSSAttr(selector string, attrs ...string) Candidate {
	return Candidate{
		Source: "css:" + selector + "@" + strings.Join(attrs, "|"),
		extract: func(d *Document) []string {
			var values []string
			d.Doc.Find(selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
				for _, attr := range attrs {
					if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
						values = append(values, strings.TrimSpace(v))
					}
				}
				return i+1 < maxValuesPerCandidate
			})
			return values
		},
	}
}

// XPath matches nodes selected by an XPath expression. Attribute nodes
// (//img/@src) yield their value, element nodes their inner text.
func XPath(expr string) Candidate {
	return Candidate{
		Source: "xpath:" + expr,
		extract: func(d *Document) []string {
			root := d.Root()
			if root == nil {
				return nil
			}
			nodes, err := htmlquery.QueryAll(root, expr)
			if err != nil {
				return nil
			}
			var values []string
			for _, n := range nodes {
				if v := collapseSpace(htmlquery.InnerText(n)); v != "" {
					values = append(values, v)
				}
				if len(values) >= maxValuesPerCandidate {
					break
				}
			}
			return values
		},
	}
}

// JSONLD matches a dot path inside the page's JSON-LD Product node.
func JSONLD(path string) Candidate {
	return Candidate{
		Source: "jsonld:" + path,
		extract: func(d *Document) []string {
			return nonEmpty(d.Structured().JSONLD(path))
		},
	}
}

// OpenGraph matches an og:* or product:* meta property.
func OpenGraph(property string) Candidate {
	return Candidate{
		Source: "og:" + strings.TrimPrefix(property, "og:"),
		extract: func(d *Document) []string {
			return nonEmpty(d.Structured().OpenGraph[property])
		},
	}
}

// Microdata matches an itemprop inside a Product itemscope.
func Microdata(prop string) Candidate {
	return Candidate{
		Source: "microdata:" + prop,
		extract: func(d *Document) []string {
			return nonEmpty(d.Structured().Microdata[prop])
		},
	}
}

// Meta matches a standard meta name or the page title.
func Meta(name string) Candidate {
	return Candidate{
		Source: "meta:" + name,
		extract: func(d *Document) []string {
			return nonEmpty(d.Structured().Meta[name])
		},
	}
}

// Validator cleans a raw value and reports whether it is usable.
type Validator func(raw string, d *Document) (string, bool)

// NonEmpty accepts any non-blank value.
func NonEmpty(raw string, _ *Document) (string, bool) {
	v := collapseSpace(raw)
	return v, v != ""
}

// Cascade is an ordered list of candidates for one field.
type Cascade struct {
	Field      string
	Candidates []Candidate
	Validate   Validator
}

// Match is the result of running a cascade.
type Match struct {
	Field  string
	Value  string
	Source string
	Found  bool
}

// First returns the first candidate value that passes validation. When no
// candidate matches, Found is false and Field names what is missing.
func (c Cascade) First(d *Document) Match {
	validate := c.Validate
	if validate == nil {
		validate = NonEmpty
	}
	for _, cand := range c.Candidates {
		for _, raw := range cand.Values(d) {
			if v, ok := validate(raw, d); ok {
				return Match{Field: c.Field, Value: v, Source: cand.Source, Found: true}
			}
		}
	}
	return Match{Field: c.Field}
}

// CSSCandidates turns a list of selectors into text candidates.
func CSSCandidates(selectors []string) []Candidate {
	out := make([]Candidate, 0, len(selectors))
	for _, s := range selectors {
		out = append(out, CSS(s))
	}
	return out
}

// ImageCandidates turns a list of selectors into image attribute candidates.
func ImageCandidates(selectors []string) []Candidate {
	out := make([]Candidate, 0, len(selectors))
	for _, s := range selectors {
		out = append(out, CSSAttr(s, imageAttrs...))
	}
	return out
}

var imageAttrs = []string{"data-old-hires", "src", "data-src", "data-lazy-src", "content", "href"}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}
