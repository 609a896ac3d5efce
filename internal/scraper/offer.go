package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var limitedOfferKeywords = []string{
	"limited time",
	"flash sale",
	"today only",
	"hurry up",
	"limited stock",
	"sale ends",
	"offer expires",
	"limited offer",
	"deal of the day",
	"lightning deal",
}

var offerSelectors = []string{
	`[class*="offer"]`,
	`[class*="deal"]`,
	`[class*="sale"]`,
	`[class*="limited"]`,
	`[class*="flash"]`,
	".badge",
	".label",
	".tag",
}

// maxOfferTextLen keeps badge text short enough for a card.
const maxOfferTextLen = 120

// DetectLimitedOffer looks for urgency wording in offer-like elements.
// Selectors are tried in order and the first matching element's text is
// returned.
func DetectLimitedOffer(d *Document) (bool, string) {
	for _, selector := range offerSelectors {
		var text string
		d.Doc.Find(selector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
			raw := collapseSpace(sel.Text())
			lower := strings.ToLower(raw)
			for _, kw := range limitedOfferKeywords {
				if strings.Contains(lower, kw) {
					text = raw
					return false
				}
			}
			return true
		})
		if text != "" {
			if r := []rune(text); len(r) > maxOfferTextLen {
				text = strings.TrimSpace(string(r[:maxOfferTextLen]))
			}
			return true, text
		}
	}
	return false, ""
}
