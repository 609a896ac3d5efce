package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sampleCard() types.ProductCard {
	d := 33
	return types.ProductCard{
		ID:               "amazon_1_abcd1234",
		Name:             "boAt Rockerz 450",
		Description:      "Wireless headphones",
		Price:            "₹1999",
		OriginalPrice:    "₹2999",
		Currency:         "INR",
		ImageURL:         "https://m.media-amazon.com/a.jpg",
		AffiliateURL:     "https://www.amazon.in/dp/B0CHX1W1XY?tag=pickntrust-21",
		Category:         "Electronics",
		Rating:           4.1,
		ReviewCount:      5120,
		Discount:         &d,
		AffiliateNetwork: "Amazon Associates",
		Platform:         "amazon",
	}
}

// --- Content Row Tests ---

func TestNewContentRow(t *testing.T) {
	now := time.Unix(1773480600, 0)
	row := NewContentRow(sampleCard(), "", now)

	if row.PageType != DefaultPage || len(row.DisplayPages) != 1 || row.DisplayPages[0] != DefaultPage {
		t.Errorf("default page not applied: %+v", row)
	}
	if row.DisplayPagesJSON() != `["prime-picks"]` {
		t.Errorf("display_pages JSON = %s", row.DisplayPagesJSON())
	}
	if row.ProcessingStatus != "active" || row.ContentType != "product" || row.SourceType != "url-processing" || !row.IsActive {
		t.Errorf("fixed columns wrong: %+v", row)
	}
	if row.CreatedAt != 1773480600 || row.UpdatedAt != row.CreatedAt {
		t.Errorf("timestamps = %d / %d", row.CreatedAt, row.UpdatedAt)
	}
	if row.AffiliatePlatform != "Amazon Associates" || row.Title != "boAt Rockerz 450" {
		t.Errorf("card fields not mapped: %+v", row)
	}

	row = NewContentRow(sampleCard(), "loot-box", now)
	if row.PageType != "loot-box" || row.DisplayPages[0] != "loot-box" {
		t.Errorf("target page not applied: %+v", row)
	}
}

func TestContentRowJSONColumns(t *testing.T) {
	b, err := json.Marshal(NewContentRow(sampleCard(), "prime-picks", time.Now()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	json.Unmarshal(b, &m)

	for _, col := range contentColumns {
		if _, ok := m[col]; !ok {
			t.Errorf("column %q missing from JSON row", col)
		}
	}
	if len(m) != len(contentColumns) {
		t.Errorf("expected %d columns, got %d", len(contentColumns), len(m))
	}
}

func TestInsertSQL(t *testing.T) {
	sql := insertSQL("unified_content")
	if !strings.HasPrefix(sql, `INSERT INTO "unified_content" (title, description,`) {
		t.Errorf("unexpected SQL: %s", sql)
	}
	if !strings.HasSuffix(sql, "$20, $21)") {
		t.Errorf("expected 21 placeholders: %s", sql)
	}
	if len(insertArgs(NewContentRow(sampleCard(), "", time.Now()))) != len(contentColumns) {
		t.Error("argument count must match column count")
	}
	if sql := insertSQL(`x"; DROP TABLE y; --`); !strings.Contains(sql, `"x""; DROP TABLE y; --"`) {
		t.Errorf("table name must be quoted: %s", sql)
	}
}

// --- File Store Tests ---

func TestFileStoreAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cards.jsonl")

	for i := 0; i < 2; i++ {
		s, err := NewFileStore(path, testLogger)
		if err != nil {
			t.Fatalf("NewFileStore: %v", err)
		}
		if err := s.Save(context.Background(), NewContentRow(sampleCard(), "prime-picks", time.Now())); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var row ContentRow
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			t.Fatalf("line %d is not JSON: %v", lines+1, err)
		}
		if row.Title != "boAt Rockerz 450" {
			t.Errorf("title = %q", row.Title)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("expected rows from both runs, got %d", lines)
	}
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "c.jsonl"), testLogger)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Save(ctx, NewContentRow(sampleCard(), "", time.Now())); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// --- Multi Store Tests ---

type memStore struct {
	name   string
	rows   []*ContentRow
	err    error
	closed bool
}

func (m *memStore) Save(_ context.Context, r *ContentRow) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, r)
	return nil
}
func (m *memStore) Close() error { m.closed = true; return nil }
func (m *memStore) Name() string { return m.name }

func TestMultiStoreFansOut(t *testing.T) {
	good := &memStore{name: "good"}
	bad := &memStore{name: "bad", err: errors.New("disk full")}
	other := &memStore{name: "other"}

	ms := NewMultiStore([]ContentStore{good, bad, other}, testLogger)
	err := ms.Save(context.Background(), NewContentRow(sampleCard(), "", time.Now()))
	if err == nil || err.Error() != "disk full" {
		t.Errorf("expected first error, got %v", err)
	}
	if len(good.rows) != 1 || len(other.rows) != 1 {
		t.Error("healthy backends must still receive the row")
	}

	ms.Close()
	if !good.closed || !bad.closed || !other.closed {
		t.Error("Close must reach every backend")
	}
}

// --- Factory Tests ---

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()

	s, err := New(context.Background(), config.StorageConfig{Backends: []string{"file"}, OutputPath: filepath.Join(dir, "a.jsonl")}, testLogger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Name() != "file" {
		t.Errorf("expected file store, got %s", s.Name())
	}
	s.Close()

	if _, err := New(context.Background(), config.StorageConfig{}, testLogger); !errors.Is(err, types.ErrNoStore) {
		t.Errorf("expected ErrNoStore, got %v", err)
	}

	_, err = New(context.Background(), config.StorageConfig{Backends: []string{"file", "sqlite"}, OutputPath: filepath.Join(dir, "b.jsonl")}, testLogger)
	var se *types.StorageError
	if !errors.As(err, &se) || se.Backend != "sqlite" {
		t.Errorf("expected StorageError for sqlite, got %v", err)
	}
}
