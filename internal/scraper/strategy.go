package scraper

import (
	"strconv"
	"strings"

	"github.com/IshaanNene/dealcard/internal/platform"
	"github.com/IshaanNene/dealcard/internal/types"
)

// Strategy extracts a product from a parsed page.
type Strategy interface {
	Extract(d *Document, info types.PlatformInfo) types.ScrapedProduct
}

// SelectorStrategy runs one cascade per product field. Name and price
// are required; every other field is best effort.
type SelectorStrategy struct {
	Name          Cascade
	Price         Cascade
	OriginalPrice Cascade
	Image         Cascade
	Description   Cascade
	Rating        Cascade
	ReviewCount   Cascade
	Discount      Cascade
}

// NewSelectorStrategy builds a strategy whose cascades try the platform
// selectors first and then the shared structured-data and generic rungs.
func NewSelectorStrategy(sel platform.Selectors) *SelectorStrategy {
	return &SelectorStrategy{
		Name: Cascade{
			Field:      "name",
			Candidates: append(CSSCandidates(sel.Title), genericName...),
			Validate:   validName,
		},
		Price: Cascade{
			Field:      "price",
			Candidates: append(CSSCandidates(sel.Price), genericPrice...),
			Validate:   validPrice,
		},
		OriginalPrice: Cascade{
			Field:      "originalPrice",
			Candidates: append(CSSCandidates(sel.OriginalPrice), genericOriginalPrice...),
			Validate:   validPrice,
		},
		Image: Cascade{
			Field:      "image",
			Candidates: append(ImageCandidates(sel.Image), genericImage...),
			Validate:   validImage,
		},
		Description: Cascade{
			Field:      "description",
			Candidates: append(CSSCandidates(sel.Description), genericDescription...),
			Validate:   validDescription,
		},
		Rating: Cascade{
			Field:      "rating",
			Candidates: append(CSSCandidates(sel.Rating), genericRating...),
			Validate:   validRating,
		},
		ReviewCount: Cascade{
			Field:      "reviewCount",
			Candidates: append(CSSCandidates(sel.ReviewCount), genericReviewCount...),
			Validate:   validReviewCount,
		},
		Discount: Cascade{
			Field:      "discount",
			Candidates: append(CSSCandidates(sel.Discount), genericDiscount...),
			Validate:   validDiscount,
		},
	}
}

// Extract implements Strategy.
func (s *SelectorStrategy) Extract(d *Document, info types.PlatformInfo) types.ScrapedProduct {
	product := types.ScrapedProduct{
		Platform:     info.Platform,
		PlatformName: info.PlatformName,
	}

	name := s.Name.First(d)
	price := s.Price.First(d)

	var missing []string
	if !name.Found {
		missing = append(missing, name.Field)
	}
	if !price.Found {
		missing = append(missing, price.Field)
	}
	if len(missing) > 0 {
		err := &types.ScrapeError{URL: d.URL.String(), Platform: info.Platform, Missing: missing, Err: types.ErrNoProductData}
		product.Error = err.Error()
		return product
	}

	product.Success = true
	product.Name = name.Value
	product.Price = withCurrency(price.Value, priceCurrency(d, price))
	product.Currency = CurrencyOf(product.Price)
	product.Sources = append(product.Sources, name.Field+"="+name.Source, price.Field+"="+price.Source)

	if m := s.OriginalPrice.First(d); m.Found {
		if orig := withCurrency(m.Value, product.Currency); orig != product.Price {
			product.OriginalPrice = orig
			product.Sources = append(product.Sources, m.Field+"="+m.Source)
		}
	}
	if m := s.Image.First(d); m.Found {
		product.ImageURL = m.Value
		product.Sources = append(product.Sources, m.Field+"="+m.Source)
	}
	if m := s.Description.First(d); m.Found {
		product.Description = m.Value
	}

	product.Rating = DefaultRating
	if m := s.Rating.First(d); m.Found {
		product.Rating, _ = strconv.ParseFloat(m.Value, 64)
	}
	product.ReviewCount = DefaultReviewCount
	if m := s.ReviewCount.First(d); m.Found {
		product.ReviewCount, _ = strconv.Atoi(m.Value)
	}
	if m := s.Discount.First(d); m.Found {
		v, _ := strconv.Atoi(m.Value)
		product.Discount = &v
	}

	product.HasLimitedOffer, product.LimitedOfferText = DetectLimitedOffer(d)
	return product
}

// priceCurrency returns the currency code declared next to a
// structured-data price, if any.
func priceCurrency(d *Document, m Match) string {
	switch {
	case strings.HasPrefix(m.Source, "jsonld:"):
		return d.Structured().JSONLD("offers.priceCurrency")
	case strings.HasPrefix(m.Source, "og:"):
		og := d.Structured().OpenGraph
		if c := og["product:price:currency"]; c != "" {
			return c
		}
		return og["og:price:currency"]
	case strings.HasPrefix(m.Source, "microdata:"):
		return d.Structured().Microdata["priceCurrency"]
	}
	return ""
}

// withCurrency swaps the default rupee symbol for a dollar sign when the
// page declares USD.
func withCurrency(price, code string) string {
	if strings.EqualFold(code, "USD") && strings.HasPrefix(price, rupee) {
		return "$" + strings.TrimPrefix(price, rupee)
	}
	return price
}

// Shared rungs tried after a platform's own selectors.
var (
	genericName = []Candidate{
		JSONLD("name"),
		Microdata("name"),
		OpenGraph("og:title"),
		CSS("h1"),
		XPath("//*[@itemprop='name']"),
		Meta("twitter:title"),
		Meta("title"),
	}
	genericPrice = []Candidate{
		JSONLD("offers.price"),
		JSONLD("offers.lowPrice"),
		OpenGraph("product:price:amount"),
		OpenGraph("og:price:amount"),
		Microdata("price"),
		CSS(".price"),
		CSS(".product-price"),
		CSS(`[class*="price"]`),
		XPath("//*[contains(@id,'price')]"),
	}
	genericOriginalPrice = []Candidate{
		CSS(".mrp"),
		CSS(`[class*="mrp"]`),
		CSS(`[class*="strike"]`),
		CSS(`[class*="original-price"]`),
		CSS("del"),
		CSS("s"),
	}
	genericImage = []Candidate{
		JSONLD("image"),
		OpenGraph("og:image"),
		OpenGraph("og:image:secure_url"),
		Meta("twitter:image"),
		Microdata("image"),
		CSSAttr(`img[itemprop="image"]`, imageAttrs...),
		CSSAttr(".product-image img", imageAttrs...),
		XPath("//img[contains(@class,'product')]/@src"),
		CSSAttr("main img", imageAttrs...),
	}
	genericDescription = []Candidate{
		JSONLD("description"),
		Microdata("description"),
		OpenGraph("og:description"),
		Meta("description"),
		CSS(".product-description"),
		CSS("#description"),
	}
	genericRating = []Candidate{
		JSONLD("aggregateRating.ratingValue"),
		Microdata("ratingValue"),
		CSS(`[class*="rating"]`),
	}
	genericReviewCount = []Candidate{
		JSONLD("aggregateRating.reviewCount"),
		JSONLD("aggregateRating.ratingCount"),
		Microdata("reviewCount"),
		Microdata("ratingCount"),
		CSS(`[class*="review-count"]`),
		CSS(`[class*="reviews"]`),
	}
	genericDiscount = []Candidate{
		CSS(`[class*="discount"]`),
		CSS(`[class*="saving"]`),
	}
)
