// Package card assembles display-ready product cards from pipeline output.
package card

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/dealcard/internal/scraper"
	"github.com/IshaanNene/dealcard/internal/types"
)

// DefaultSource is the card source when no target page is given.
const DefaultSource = "url-processing"

// Assembler builds ProductCards. The clock and ID suffix source are
// replaceable for tests.
type Assembler struct {
	now          func() time.Time
	suffix       func() string
	defaultImage string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock sets the time source for IDs and CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithSuffix sets the random ID suffix source.
func WithSuffix(suffix func() string) Option {
	return func(a *Assembler) { a.suffix = suffix }
}

// WithDefaultImage sets the image used when none was scraped.
func WithDefaultImage(url string) Option {
	return func(a *Assembler) { a.defaultImage = url }
}

// NewAssembler creates an Assembler.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		now:    time.Now,
		suffix: randomSuffix,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Assemble merges a successful scrape, its affiliate link and category
// into a new card. Every call yields a fresh ID.
func (a *Assembler) Assemble(scraped types.ScrapedProduct, link types.ConvertedLink, category string, info types.PlatformInfo, originalURL, targetPage string) types.ProductCard {
	now := a.now()

	platformName := info.PlatformName
	if platformName == "" {
		platformName = scraped.PlatformName
	}

	description := scraped.Description
	if description == "" {
		description = fmt.Sprintf("%s from %s", scraped.Name, platformName)
	}

	network := link.AffiliateNetwork
	badge := network
	if badge == "" {
		badge = platformName
	}
	if network == "" {
		network = "Direct"
	}

	source := targetPage
	if source == "" {
		source = DefaultSource
	}

	image := scraped.ImageURL
	if image == "" {
		image = a.defaultImage
	}

	currency := scraped.Currency
	if currency == "" {
		currency = scraper.CurrencyOf(scraped.Price)
	}

	return types.ProductCard{
		ID:               fmt.Sprintf("%s_%d_%s", info.Platform, now.UnixMilli(), a.suffix()),
		Name:             scraped.Name,
		Description:      description,
		Price:            scraped.Price,
		OriginalPrice:    scraped.OriginalPrice,
		Currency:         currency,
		ImageURL:         image,
		AffiliateURL:     link.AffiliateURL,
		OriginalURL:      originalURL,
		Category:         category,
		Rating:           scraped.Rating,
		ReviewCount:      scraped.ReviewCount,
		Discount:         Discount(scraped),
		IsNew:            true,
		IsFeatured:       false,
		Source:           source,
		SourceType:       info.Platform,
		NetworkBadge:     badge,
		AffiliateNetwork: network,
		Platform:         info.Platform,
		ProductID:        scraped.ProductID,
		HasLimitedOffer:  scraped.HasLimitedOffer,
		LimitedOfferText: scraped.LimitedOfferText,
		CreatedAt:        now,
	}
}

// Discount returns the scraped discount, or one computed from the prices
// when the original price is higher than the current one.
func Discount(p types.ScrapedProduct) *int {
	if p.Discount != nil {
		d := *p.Discount
		return &d
	}
	current, ok := scraper.ParsePrice(p.Price)
	if !ok {
		return nil
	}
	original, ok := scraper.ParsePrice(p.OriginalPrice)
	if !ok || original <= current {
		return nil
	}
	d := int(math.Round((original - current) / original * 100))
	return &d
}
