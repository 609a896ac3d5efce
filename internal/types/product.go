package types

import "time"

// ResolvedURL is the outcome of unwrapping a possibly shortened link.
type ResolvedURL struct {
	OriginalURL       string   `json:"originalUrl"`
	FinalURL          string   `json:"finalUrl"`
	RedirectChain     []string `json:"redirectChain"`
	ShortenerDetected bool     `json:"shortenerDetected"`
}

// Scraping strategies a platform profile can ask for.
const (
	StrategyDirect  = "direct"
	StrategyBrowser = "browser"
	StrategyGeneric = "generic"
)

// GenericPlatform is the platform tag for unrecognised domains.
const GenericPlatform = "generic"

// PlatformInfo classifies a resolved URL's domain.
type PlatformInfo struct {
	Platform             string `json:"platform"`
	PlatformName         string `json:"platformName"`
	Domain               string `json:"domain"`
	IsAffiliateSupported bool   `json:"isAffiliateSupported"`
	ScrapingStrategy     string `json:"scrapingStrategy"`
}

// ScrapedProduct holds the attributes extracted from a product page.
// When Success is false, Error is set and the product must not be assembled.
type ScrapedProduct struct {
	Success          bool     `json:"success"`
	Name             string   `json:"name,omitempty"`
	Description      string   `json:"description,omitempty"`
	Price            string   `json:"price,omitempty"`
	OriginalPrice    string   `json:"originalPrice,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	ImageURL         string   `json:"imageUrl,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	ReviewCount      int      `json:"reviewCount,omitempty"`
	Discount         *int     `json:"discount,omitempty"`
	ProductID        string   `json:"productId,omitempty"`
	Platform         string   `json:"platform"`
	PlatformName     string   `json:"platformName"`
	HasLimitedOffer  bool     `json:"hasLimitedOffer,omitempty"`
	LimitedOfferText string   `json:"limitedOfferText,omitempty"`
	Sources          []string `json:"sources,omitempty"` // which candidate produced each field
	Error            string   `json:"error,omitempty"`
}

// ConvertedLink is the monetised form of a resolved URL.
// AffiliateURL is never empty.
type ConvertedLink struct {
	AffiliateURL     string  `json:"affiliateUrl"`
	IsConverted      bool    `json:"isConverted"`
	AffiliateNetwork string  `json:"affiliateNetwork,omitempty"`
	CommissionRate   float64 `json:"commissionRate,omitempty"`
}

// ProductCard is the canonical, display-ready entity produced by a
// successful pipeline run. It is never mutated after creation.
type ProductCard struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Price            string    `json:"price"`
	OriginalPrice    string    `json:"originalPrice,omitempty"`
	Currency         string    `json:"currency"`
	ImageURL         string    `json:"imageUrl"`
	AffiliateURL     string    `json:"affiliateUrl"`
	OriginalURL      string    `json:"originalUrl"`
	Category         string    `json:"category"`
	Rating           float64   `json:"rating"`
	ReviewCount      int       `json:"reviewCount"`
	Discount         *int      `json:"discount,omitempty"`
	IsNew            bool      `json:"isNew"`
	IsFeatured       bool      `json:"isFeatured"`
	Source           string    `json:"source"`
	SourceType       string    `json:"sourceType"`
	NetworkBadge     string    `json:"networkBadge"`
	AffiliateNetwork string    `json:"affiliateNetwork"`
	Platform         string    `json:"platform"`
	ProductID        string    `json:"productId,omitempty"`
	HasLimitedOffer  bool      `json:"hasLimitedOffer"`
	LimitedOfferText string    `json:"limitedOfferText,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ProcessingResult wraps the outcome of one URL run.
type ProcessingResult struct {
	Success        bool         `json:"success"`
	OriginalURL    string       `json:"originalUrl"`
	ProductCard    *ProductCard `json:"productCard,omitempty"`
	Error          string       `json:"error,omitempty"`
	ProcessingTime int64        `json:"processingTime"` // milliseconds
	Saved          bool         `json:"saved,omitempty"`
	SaveError      string       `json:"saveError,omitempty"`
}

// BulkProcessingResult wraps the outcome of a bulk run.
// TotalURLs always equals SuccessfullyProcessed + Failed.
type BulkProcessingResult struct {
	TotalURLs             int                `json:"totalUrls"`
	SuccessfullyProcessed int                `json:"successfullyProcessed"`
	Failed                int                `json:"failed"`
	Results               []ProcessingResult `json:"results"`
	ProcessingTime        int64              `json:"processingTime"`
}

// QueueStatus summarises the processing status store.
type QueueStatus struct {
	Total      int `json:"total"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
