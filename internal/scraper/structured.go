package scraper

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StructuredData holds the machine-readable product markup of a page.
type StructuredData struct {
	// Product is the first JSON-LD node typed Product.
	Product map[string]any `json:"product,omitempty"`

	// OpenGraph maps og:* and product:* meta properties to their content.
	OpenGraph map[string]string `json:"opengraph,omitempty"`

	// Microdata maps itemprop names inside a Product itemscope to values.
	Microdata map[string]string `json:"microdata,omitempty"`

	// Meta maps standard meta names (description, keywords) and the title.
	Meta map[string]string `json:"meta,omitempty"`
}

func extractStructured(doc *goquery.Document) *StructuredData {
	return &StructuredData{
		Product:   extractJSONLDProduct(doc),
		OpenGraph: extractOpenGraph(doc),
		Microdata: extractMicrodata(doc),
		Meta:      extractMeta(doc),
	}
}

// JSONLD looks up a dot-separated path in the Product node, e.g.
// "offers.price" or "aggregateRating.ratingValue". Arrays resolve to their
// first element; objects with a "url" or "@id" resolve to that value.
func (s *StructuredData) JSONLD(path string) string {
	if s == nil || s.Product == nil {
		return ""
	}
	var cur any = s.Product
	for _, key := range strings.Split(path, ".") {
		cur = first(cur)
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[key]
	}
	return scalar(first(cur))
}

// --- extraction ---

// extractJSONLDProduct parses <script type="application/ld+json"> blocks
// and returns the first Product node, looking inside arrays and @graph.
func extractJSONLDProduct(doc *goquery.Document) map[string]any {
	var product map[string]any

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return true
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return true
		}
		product = findProduct(data)
		return product == nil
	})

	return product
}

func findProduct(v any) map[string]any {
	switch node := v.(type) {
	case []any:
		for _, n := range node {
			if p := findProduct(n); p != nil {
				return p
			}
		}
	case map[string]any:
		if isProductType(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"]; ok {
			return findProduct(graph)
		}
	}
	return nil
}

func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Product") || strings.HasSuffix(v, "/Product")
	case []any:
		for _, x := range v {
			if isProductType(x) {
				return true
			}
		}
	}
	return false
}

func extractOpenGraph(doc *goquery.Document) map[string]string {
	data := make(map[string]string)
	doc.Find(`meta[property^="og:"], meta[property^="product:"], meta[name^="og:"]`).Each(func(i int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		if property == "" {
			property, _ = sel.Attr("name")
		}
		content, _ := sel.Attr("content")
		content = strings.TrimSpace(content)
		if property == "" || content == "" {
			return
		}
		if _, seen := data[property]; !seen {
			data[property] = content
		}
	})
	return data
}

// extractMicrodata reads itemprop values under the first Product itemscope.
func extractMicrodata(doc *goquery.Document) map[string]string {
	data := make(map[string]string)

	scope := doc.Find(`[itemscope][itemtype*="Product"]`).First()
	if scope.Length() == 0 {
		return data
	}

	scope.Find("[itemprop]").Each(func(i int, prop *goquery.Selection) {
		name, _ := prop.Attr("itemprop")
		if name == "" {
			return
		}
		if _, seen := data[name]; seen {
			return
		}

		var value string
		for _, attr := range []string{"content", "src", "href"} {
			if v, ok := prop.Attr(attr); ok && v != "" {
				value = v
				break
			}
		}
		if value == "" {
			value = strings.TrimSpace(prop.Text())
		}
		if value != "" {
			data[name] = value
		}
	})

	return data
}

func extractMeta(doc *goquery.Document) map[string]string {
	data := make(map[string]string)

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		data["title"] = title
	}
	for _, name := range []string{"description", "keywords", "twitter:title", "twitter:image", "twitter:description"} {
		content, ok := doc.Find(`meta[name="` + name + `"]`).Attr("content")
		if ok && strings.TrimSpace(content) != "" {
			data[name] = strings.TrimSpace(content)
		}
	}
	return data
}

// --- value helpers ---

func first(v any) any {
	if arr, ok := v.([]any); ok {
		if len(arr) == 0 {
			return nil
		}
		return arr[0]
	}
	return v
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any:
		for _, key := range []string{"url", "@id", "contentUrl", "name"} {
			if s, ok := x[key].(string); ok && s != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
