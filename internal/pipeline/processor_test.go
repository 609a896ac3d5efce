package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IshaanNene/dealcard/internal/affiliate"
	"github.com/IshaanNene/dealcard/internal/card"
	"github.com/IshaanNene/dealcard/internal/category"
	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/fetcher"
	"github.com/IshaanNene/dealcard/internal/platform"
	"github.com/IshaanNene/dealcard/internal/resolver"
	"github.com/IshaanNene/dealcard/internal/scraper"
	"github.com/IshaanNene/dealcard/internal/status"
	"github.com/IshaanNene/dealcard/internal/storage"
	"github.com/IshaanNene/dealcard/internal/types"
)

// fakeResolver maps shortened links to fixed destinations.
type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, raw string) types.ResolvedURL {
	if final, ok := f[raw]; ok {
		return types.ResolvedURL{OriginalURL: raw, FinalURL: final, RedirectChain: []string{raw, final}, ShortenerDetected: true}
	}
	return types.ResolvedURL{OriginalURL: raw, FinalURL: raw, RedirectChain: []string{raw}}
}

// fakeScraper returns product for every URL, or runs fn when set.
type fakeScraper struct {
	product types.ScrapedProduct
	fn      func(ctx context.Context, resolved types.ResolvedURL) types.ScrapedProduct
}

func (f *fakeScraper) ScrapeWith(ctx context.Context, resolved types.ResolvedURL, info types.PlatformInfo) types.ScrapedProduct {
	if f.fn != nil {
		return f.fn(ctx, resolved)
	}
	p := f.product
	p.Platform = info.Platform
	p.PlatformName = info.PlatformName
	return p
}

type memStore struct {
	mu   sync.Mutex
	rows []*storage.ContentRow
	err  error
}

func (m *memStore) Save(_ context.Context, r *storage.ContentRow) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.rows = append(m.rows, r)
	m.mu.Unlock()
	return nil
}
func (m *memStore) Close() error { return nil }
func (m *memStore) Name() string { return "mem" }

var headphones = types.ScrapedProduct{
	Success:       true,
	Name:          "boAt Rockerz 450 Bluetooth Headphones",
	Price:         "₹1999",
	OriginalPrice: "₹2999",
	Currency:      "INR",
	ImageURL:      "https://m.media-amazon.com/images/I/rockerz.jpg",
	Rating:        4.1,
	ReviewCount:   5120,
	ProductID:     "B0CHX1W1XY",
}

func newTestProcessor(t *testing.T, sc Scraper, store storage.ContentStore, cfg config.PipelineConfig, opts ...Option) *Processor {
	t.Helper()
	defaults := config.DefaultConfig()
	return NewProcessor(Deps{
		Resolver:   fakeResolver{"https://amzn.to/abc123": "https://www.amazon.in/dp/B0CHX1W1XY"},
		Detector:   platform.DefaultRegistry(),
		Scraper:    sc,
		Converter:  affiliate.NewConverter(defaults.Affiliate, testLogger),
		Classifier: category.Default(),
		Assembler:  card.NewAssembler(),
		Store:      store,
	}, cfg, testLogger, opts...)
}

// --- Processor Tests ---

func TestProcessShortenedAmazonLink(t *testing.T) {
	p := newTestProcessor(t, &fakeScraper{product: headphones}, nil, config.PipelineConfig{MaxNameLength: 300})

	res := p.ProcessURL(context.Background(), "https://amzn.to/abc123", Options{})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	c := res.ProductCard
	if c.Platform != "amazon" || c.AffiliateNetwork == "" || c.AffiliateNetwork == "Direct" {
		t.Errorf("unexpected platform/network: %s / %s", c.Platform, c.AffiliateNetwork)
	}
	if !strings.Contains(c.AffiliateURL, "tag=pickntrust-21") || !strings.Contains(c.AffiliateURL, "/dp/B0CHX1W1XY") {
		t.Errorf("affiliate URL missing tag: %s", c.AffiliateURL)
	}
	if c.Category != "Electronics" {
		t.Errorf("category = %s", c.Category)
	}
	if !strings.HasPrefix(c.Price, "₹") {
		t.Errorf("price = %s", c.Price)
	}
	if c.OriginalURL != "https://amzn.to/abc123" || c.Source != storage.DefaultPage {
		t.Errorf("originalUrl/source = %s / %s", c.OriginalURL, c.Source)
	}
	if res.Saved || res.SaveError != "" {
		t.Error("nothing should be saved without Save")
	}

	snap := p.Metrics().Snapshot()
	if snap["urls_resolved"] != 1 || snap["links_converted"] != 1 || snap["cards_assembled"] != 1 {
		t.Errorf("metrics not updated: %v", snap)
	}
}

func TestProcessInvalidURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Fetcher.DomainRPS = 0
	httpFetcher, err := fetcher.NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	defer httpFetcher.Close()

	registry := platform.DefaultRegistry()
	p := NewProcessor(Deps{
		Resolver:   resolver.New(cfg.Resolver, testLogger),
		Detector:   registry,
		Scraper:    scraper.New(registry, httpFetcher, testLogger),
		Converter:  affiliate.NewConverter(cfg.Affiliate, testLogger),
		Classifier: category.Default(),
		Assembler:  card.NewAssembler(),
	}, cfg.Pipeline, testLogger)

	res := p.ProcessURL(context.Background(), "not-a-url", Options{})
	if res.Success || res.ProductCard != nil {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(res.Error, "Scraping failed: ") {
		t.Errorf("error = %q", res.Error)
	}
	if res.ProcessingTime < 0 {
		t.Errorf("processing time = %d", res.ProcessingTime)
	}
}

func TestDiscountComputedFromPrices(t *testing.T) {
	p := newTestProcessor(t, &fakeScraper{product: headphones}, nil, config.PipelineConfig{})

	res := p.ProcessURL(context.Background(), "https://www.amazon.in/dp/B0CHX1W1XY", Options{})
	if !res.Success {
		t.Fatalf("expected success: %s", res.Error)
	}
	if d := res.ProductCard.Discount; d == nil || *d != 33 {
		t.Errorf("discount = %v, want 33", d)
	}
}

func TestRepeatedURLYieldsDistinctCards(t *testing.T) {
	p := newTestProcessor(t, &fakeScraper{product: headphones}, nil, config.PipelineConfig{})

	a := p.ProcessURL(context.Background(), "https://amzn.to/abc123", Options{})
	b := p.ProcessURL(context.Background(), "https://amzn.to/abc123", Options{})
	if !a.Success || !b.Success {
		t.Fatal("expected both runs to succeed")
	}
	if a.ProductCard.ID == b.ProductCard.ID {
		t.Errorf("expected distinct IDs, both %s", a.ProductCard.ID)
	}
}

func TestProcessSave(t *testing.T) {
	store := &memStore{}
	p := newTestProcessor(t, &fakeScraper{product: headphones}, store, config.PipelineConfig{})

	res := p.ProcessURL(context.Background(), "https://amzn.to/abc123", Options{TargetPage: "loot-box", Save: true})
	if !res.Saved || res.SaveError != "" {
		t.Fatalf("expected saved result, got %+v", res)
	}
	if len(store.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(store.rows))
	}
	row := store.rows[0]
	if row.PageType != "loot-box" || row.DisplayPagesJSON() != `["loot-box"]` || row.Title != headphones.Name {
		t.Errorf("unexpected row: %+v", row)
	}
	if res.ProductCard.Source != "loot-box" {
		t.Errorf("card source = %s", res.ProductCard.Source)
	}
}

func TestProcessSaveFailureKeepsCard(t *testing.T) {
	p := newTestProcessor(t, &fakeScraper{product: headphones}, &memStore{err: errors.New("connection refused")}, config.PipelineConfig{})

	res := p.ProcessURL(context.Background(), "https://amzn.to/abc123", Options{Save: true})
	if !res.Success || res.ProductCard == nil {
		t.Fatal("card must survive a failed save")
	}
	if res.Saved || !strings.Contains(res.SaveError, "connection refused") {
		t.Errorf("unexpected save outcome: saved=%v err=%q", res.Saved, res.SaveError)
	}

	noStore := newTestProcessor(t, &fakeScraper{product: headphones}, nil, config.PipelineConfig{})
	res = noStore.ProcessURL(context.Background(), "https://amzn.to/abc123", Options{Save: true})
	if res.Saved || res.SaveError != types.ErrNoStore.Error() {
		t.Errorf("expected ErrNoStore, got %q", res.SaveError)
	}
}

func TestProcessRejectsIncompleteProduct(t *testing.T) {
	incomplete := headphones
	incomplete.Price = "   "
	p := newTestProcessor(t, &fakeScraper{product: incomplete}, nil, config.PipelineConfig{})

	res := p.ProcessURL(context.Background(), "https://example.com/p", Options{})
	if res.Success || !strings.HasPrefix(res.Error, "Scraping failed: ") {
		t.Errorf("expected scrape failure, got %+v", res)
	}
}

func TestProcessRecoversPanic(t *testing.T) {
	sc := &fakeScraper{fn: func(context.Context, types.ResolvedURL) types.ScrapedProduct {
		panic("selector engine exploded")
	}}
	p := newTestProcessor(t, sc, nil, config.PipelineConfig{})

	res := p.ProcessURL(context.Background(), "https://example.com/p", Options{})
	if res.Success || !strings.Contains(res.Error, "selector engine exploded") {
		t.Errorf("expected recovered panic, got %+v", res)
	}
	if p.Metrics().PanicsRecovered.Load() != 1 {
		t.Error("panic not counted")
	}

	st, _ := p.Status(context.Background())
	if st.Failed != 1 || st.Processing != 0 {
		t.Errorf("panicking run must be finished as failed: %+v", st)
	}
}

func TestProcessTimeout(t *testing.T) {
	sc := &fakeScraper{fn: func(ctx context.Context, _ types.ResolvedURL) types.ScrapedProduct {
		<-ctx.Done()
		return types.ScrapedProduct{Success: false, Error: ctx.Err().Error()}
	}}
	p := newTestProcessor(t, sc, nil, config.PipelineConfig{Timeout: 30 * time.Millisecond})

	res := p.ProcessURL(context.Background(), "https://example.com/slow", Options{})
	if res.Success || !strings.Contains(res.Error, "deadline exceeded") {
		t.Errorf("expected deadline failure, got %+v", res)
	}
}

func TestStatusTracking(t *testing.T) {
	sc := &fakeScraper{fn: func(_ context.Context, r types.ResolvedURL) types.ScrapedProduct {
		if strings.Contains(r.FinalURL, "broken") {
			return types.ScrapedProduct{Error: "status 404"}
		}
		return headphones
	}}
	st := status.NewMemoryStore()
	p := newTestProcessor(t, sc, nil, config.PipelineConfig{})
	p.deps.Status = st

	ctx := context.Background()
	p.ProcessURL(ctx, "https://example.com/ok", Options{})
	p.ProcessURL(ctx, "https://example.com/broken", Options{})

	got, err := p.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	want := types.QueueStatus{Total: 2, Completed: 1, Failed: 1}
	if got != want {
		t.Errorf("status = %+v, want %+v", got, want)
	}

	p.ClearStatus(ctx)
	if got, _ := p.Status(ctx); got.Total != 0 {
		t.Errorf("status after clear = %+v", got)
	}
}

// --- Bulk Tests ---

func TestProcessManyBatching(t *testing.T) {
	var inflight, peak atomic.Int32
	sc := &fakeScraper{fn: func(_ context.Context, r types.ResolvedURL) types.ScrapedProduct {
		n := inflight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inflight.Add(-1)
		if strings.HasSuffix(r.FinalURL, "/4") {
			return types.ScrapedProduct{Error: "status 503"}
		}
		return headphones
	}}

	delay := 40 * time.Millisecond
	p := newTestProcessor(t, sc, nil, config.PipelineConfig{}, WithBulk(config.BulkConfig{BatchSize: 3, BatchDelay: delay}))

	urls := make([]string, 7)
	for i := range urls {
		urls[i] = "https://example.com/p/" + string(rune('0'+i))
	}

	start := time.Now()
	res := p.ProcessMany(context.Background(), urls, Options{})
	elapsed := time.Since(start)

	if elapsed < 2*delay {
		t.Errorf("elapsed %v, want at least %v for three batches", elapsed, 2*delay)
	}
	if peak.Load() > 3 {
		t.Errorf("peak concurrency %d exceeds batch size", peak.Load())
	}
	if res.TotalURLs != 7 || res.SuccessfullyProcessed != 6 || res.Failed != 1 {
		t.Errorf("unexpected totals: %+v", res)
	}
	for i, r := range res.Results {
		if r.OriginalURL != urls[i] {
			t.Errorf("result %d is for %s, want %s", i, r.OriginalURL, urls[i])
		}
	}
	if res.Results[4].Success {
		t.Error("result 4 should be the failure")
	}
	if p.Metrics().BulkBatches.Load() != 3 {
		t.Errorf("batches = %d", p.Metrics().BulkBatches.Load())
	}
}

func TestProcessManyEmpty(t *testing.T) {
	p := newTestProcessor(t, &fakeScraper{product: headphones}, nil, config.PipelineConfig{})
	res := p.ProcessMany(context.Background(), nil, Options{})
	if res.TotalURLs != 0 || res.SuccessfullyProcessed != 0 || res.Failed != 0 || len(res.Results) != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestProcessManyCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sc := &fakeScraper{fn: func(context.Context, types.ResolvedURL) types.ScrapedProduct {
		cancel()
		return headphones
	}}
	p := newTestProcessor(t, sc, nil, config.PipelineConfig{}, WithBulk(config.BulkConfig{BatchSize: 2, BatchDelay: time.Hour}))

	urls := []string{"https://a.com/1", "https://a.com/2", "https://a.com/3", "https://a.com/4", "https://a.com/5"}
	done := make(chan types.BulkProcessingResult)
	go func() { done <- p.ProcessMany(ctx, urls, Options{}) }()

	select {
	case res := <-done:
		if res.TotalURLs != 5 || res.SuccessfullyProcessed != 2 || res.Failed != 3 {
			t.Errorf("unexpected totals: %+v", res)
		}
		if res.TotalURLs != res.SuccessfullyProcessed+res.Failed {
			t.Error("totals must add up")
		}
		if !strings.Contains(res.Results[4].Error, "canceled") {
			t.Errorf("skipped URL error = %q", res.Results[4].Error)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not interrupt the batch delay")
	}
}
