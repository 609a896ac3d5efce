package scraper

import (
	"bytes"
	"fmt"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/dealcard/internal/types"
)

// Document is a parsed product page. The same node tree backs CSS
// (goquery) and XPath (htmlquery) lookups; structured data is parsed
// on first use.
type Document struct {
	URL *url.URL
	Doc *goquery.Document

	structuredOnce sync.Once
	structured     *StructuredData
}

// NewDocument parses a fetched response. The page URL is the response's
// final URL when known.
func NewDocument(resp *types.Response) (*Document, error) {
	pageURL := resp.FinalURL
	if pageURL == "" {
		pageURL = resp.Request.URLString()
	}
	return ParseDocument(pageURL, resp.Body)
}

// ParseDocument parses raw HTML served at pageURL.
func ParseDocument(pageURL string, body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}
	return &Document{URL: u, Doc: doc}, nil
}

// Root returns the document node for XPath queries.
func (d *Document) Root() *html.Node {
	if len(d.Doc.Nodes) == 0 {
		return nil
	}
	return d.Doc.Nodes[0]
}

// Structured returns JSON-LD, OpenGraph and microdata found on the page.
func (d *Document) Structured() *StructuredData {
	d.structuredOnce.Do(func() {
		d.structured = extractStructured(d.Doc)
	})
	return d.structured
}
