package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var contentColumns = []string{
	"title", "description", "price", "original_price", "currency", "image_url", "affiliate_url",
	"category", "rating", "review_count", "discount", "is_featured",
	"affiliate_platform", "display_pages", "processing_status", "created_at", "updated_at",
	"content_type", "page_type", "source_type", "is_active",
}

// PostgresStore inserts rows into a content table through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	insert string
	logger *slog.Logger
}

// NewPostgresStore creates and verifies a pgxpool connection pool.
func NewPostgresStore(ctx context.Context, dsn, table string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return &PostgresStore{
		pool:   pool,
		insert: insertSQL(table),
		logger: logger.With("component", "postgres_store"),
	}, nil
}

// insertSQL builds the INSERT for table with one placeholder per column.
func insertSQL(table string) string {
	placeholders := make([]string, len(contentColumns))
	for i := range contentColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(contentColumns, ", "),
		strings.Join(placeholders, ", "),
	)
}

// insertArgs returns row values in contentColumns order.
func insertArgs(row *ContentRow) []any {
	return []any{
		row.Title, row.Description, row.Price, row.OriginalPrice, row.Currency, row.ImageURL, row.AffiliateURL,
		row.Category, row.Rating, row.ReviewCount, row.Discount, row.IsFeatured,
		row.AffiliatePlatform, row.DisplayPagesJSON(), row.ProcessingStatus, row.CreatedAt, row.UpdatedAt,
		row.ContentType, row.PageType, row.SourceType, row.IsActive,
	}
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Save(ctx context.Context, row *ContentRow) error {
	tag, err := s.pool.Exec(ctx, s.insert, insertArgs(row)...)
	if err != nil {
		return fmt.Errorf("postgres insert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres insert: no rows affected")
	}
	s.logger.Debug("row stored in postgres", "title", row.Title, "page", row.PageType)
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
