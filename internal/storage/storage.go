package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/types"
)

// DefaultPage is the display page used when a card has no target page.
const DefaultPage = "prime-picks"

// ContentStore is the interface for all content backends.
type ContentStore interface {
	// Save persists one content row.
	Save(ctx context.Context, row *ContentRow) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the backend identifier.
	Name() string
}

// ContentRow is the persisted shape of a product card. Column names follow
// the unified content table.
type ContentRow struct {
	Title             string   `json:"title"              bson:"title"`
	Description       string   `json:"description"        bson:"description"`
	Price             string   `json:"price"              bson:"price"`
	OriginalPrice     string   `json:"original_price"     bson:"original_price"`
	Currency          string   `json:"currency"           bson:"currency"`
	ImageURL          string   `json:"image_url"          bson:"image_url"`
	AffiliateURL      string   `json:"affiliate_url"      bson:"affiliate_url"`
	Category          string   `json:"category"           bson:"category"`
	Rating            float64  `json:"rating"             bson:"rating"`
	ReviewCount       int      `json:"review_count"       bson:"review_count"`
	Discount          *int     `json:"discount"           bson:"discount"`
	IsFeatured        bool     `json:"is_featured"        bson:"is_featured"`
	AffiliatePlatform string   `json:"affiliate_platform" bson:"affiliate_platform"`
	DisplayPages      []string `json:"display_pages"      bson:"display_pages"`
	ProcessingStatus  string   `json:"processing_status"  bson:"processing_status"`
	CreatedAt         int64    `json:"created_at"         bson:"created_at"`
	UpdatedAt         int64    `json:"updated_at"         bson:"updated_at"`
	ContentType       string   `json:"content_type"       bson:"content_type"`
	PageType          string   `json:"page_type"          bson:"page_type"`
	SourceType        string   `json:"source_type"        bson:"source_type"`
	IsActive          bool     `json:"is_active"          bson:"is_active"`
}

// NewContentRow maps a card to its persisted row for targetPage.
// Timestamps are unix seconds.
func NewContentRow(card types.ProductCard, targetPage string, now time.Time) *ContentRow {
	if targetPage == "" {
		targetPage = DefaultPage
	}
	ts := now.Unix()
	return &ContentRow{
		Title:             card.Name,
		Description:       card.Description,
		Price:             card.Price,
		OriginalPrice:     card.OriginalPrice,
		Currency:          card.Currency,
		ImageURL:          card.ImageURL,
		AffiliateURL:      card.AffiliateURL,
		Category:          card.Category,
		Rating:            card.Rating,
		ReviewCount:       card.ReviewCount,
		Discount:          card.Discount,
		IsFeatured:        card.IsFeatured,
		AffiliatePlatform: card.AffiliateNetwork,
		DisplayPages:      []string{targetPage},
		ProcessingStatus:  "active",
		CreatedAt:         ts,
		UpdatedAt:         ts,
		ContentType:       "product",
		PageType:          targetPage,
		SourceType:        "url-processing",
		IsActive:          true,
	}
}

// DisplayPagesJSON returns display_pages encoded as a JSON array.
func (r *ContentRow) DisplayPagesJSON() string {
	b, err := json.Marshal(r.DisplayPages)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// New opens every backend listed in cfg.Backends. A single backend is
// returned as is; several are wrapped in a MultiStore.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ContentStore, error) {
	var backends []ContentStore
	closeAll := func() {
		for _, b := range backends {
			b.Close()
		}
	}

	for _, name := range cfg.Backends {
		var (
			store ContentStore
			err   error
		)
		switch name {
		case "file":
			store, err = NewFileStore(cfg.OutputPath, logger)
		case "postgres":
			store, err = NewPostgresStore(ctx, cfg.PostgresDSN, cfg.PostgresTable, logger)
		case "mongodb":
			store, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
		default:
			err = fmt.Errorf("unsupported storage backend: %s", name)
		}
		if err != nil {
			closeAll()
			return nil, &types.StorageError{Backend: name, Err: err}
		}
		backends = append(backends, store)
	}

	switch len(backends) {
	case 0:
		return nil, types.ErrNoStore
	case 1:
		return backends[0], nil
	default:
		return NewMultiStore(backends, logger), nil
	}
}
