package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/IshaanNene/dealcard/internal/affiliate"
	"github.com/IshaanNene/dealcard/internal/category"
	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/observability"
	"github.com/IshaanNene/dealcard/internal/pipeline"
	"github.com/IshaanNene/dealcard/internal/platform"
	"github.com/IshaanNene/dealcard/internal/resolver"
	"github.com/IshaanNene/dealcard/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeProcessor struct {
	mu      sync.Mutex
	opts    []pipeline.Options
	urls    []string
	cleared bool
}

func (f *fakeProcessor) ProcessURL(_ context.Context, url string, opts pipeline.Options) types.ProcessingResult {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	return types.ProcessingResult{
		Success:     true,
		OriginalURL: url,
		ProductCard: &types.ProductCard{ID: "amazon_1_abcd1234", Name: "Kettle", Platform: "amazon"},
		Saved:       opts.Save,
	}
}

func (f *fakeProcessor) ProcessMany(ctx context.Context, urls []string, opts pipeline.Options) types.BulkProcessingResult {
	out := types.BulkProcessingResult{TotalURLs: len(urls)}
	for _, u := range urls {
		out.Results = append(out.Results, f.ProcessURL(ctx, u, opts))
		out.SuccessfullyProcessed++
	}
	return out
}

func (f *fakeProcessor) Status(context.Context) (types.QueueStatus, error) {
	return types.QueueStatus{Total: 4, Processing: 1, Completed: 2, Failed: 1}, nil
}

func (f *fakeProcessor) ClearStatus(context.Context) error {
	f.cleared = true
	return nil
}

type fakeScraper struct{}

func (fakeScraper) ScrapeWith(_ context.Context, _ types.ResolvedURL, info types.PlatformInfo) types.ScrapedProduct {
	return types.ScrapedProduct{Success: true, Name: "Kettle", Price: "₹899", Platform: info.Platform, PlatformName: info.PlatformName}
}

func newTestServer(t *testing.T, adminKey string) (*Server, *fakeProcessor) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.AdminKey = adminKey

	proc := &fakeProcessor{}
	srv := NewServer(cfg.Server, config.BulkConfig{MaxURLs: 3}, Deps{
		Processor:  proc,
		Resolver:   resolver.New(cfg.Resolver, testLogger),
		Registry:   platform.DefaultRegistry(),
		Scraper:    fakeScraper{},
		Converter:  affiliate.NewConverter(cfg.Affiliate, testLogger),
		Categories: category.Default().Categories(),
		Metrics:    observability.NewMetrics(testLogger),
	}, testLogger)
	return srv, proc
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

// --- Route Tests ---

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec, out := do(t, s, "GET", "/api/health", "", nil)
	if rec.Code != http.StatusOK || out["status"] != "ok" || out["version"] != config.Version {
		t.Errorf("unexpected health response: %d %v", rec.Code, out)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestProcessURL(t *testing.T) {
	s, proc := newTestServer(t, "")

	rec, out := do(t, s, "POST", "/api/process-url", `{"url":" https://amzn.to/x ","targetPage":"loot-box"}`, nil)
	if rec.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("unexpected response: %d %v", rec.Code, out)
	}
	if proc.urls[0] != "https://amzn.to/x" || proc.opts[0].TargetPage != "loot-box" || proc.opts[0].Save {
		t.Errorf("processor called with %v %+v", proc.urls, proc.opts)
	}

	rec, out = do(t, s, "POST", "/api/process-url", `{"url":""}`, nil)
	if rec.Code != http.StatusBadRequest || out["error"] != "URL is required" {
		t.Errorf("expected 400, got %d %v", rec.Code, out)
	}

	rec, out = do(t, s, "POST", "/api/process-url", `{not json`, nil)
	if rec.Code != http.StatusBadRequest || out["error"] != "invalid JSON" {
		t.Errorf("expected invalid JSON, got %d %v", rec.Code, out)
	}
}

func TestSaveRequiresAdminKey(t *testing.T) {
	s, proc := newTestServer(t, "s3cret")

	rec, out := do(t, s, "POST", "/api/process-url", `{"url":"https://amzn.to/x","saveToDatabase":true}`, nil)
	if rec.Code != http.StatusUnauthorized || out["error"] != "Unauthorized" {
		t.Errorf("expected 401, got %d %v", rec.Code, out)
	}
	if len(proc.urls) != 0 {
		t.Error("unauthorised save must not reach the pipeline")
	}

	rec, out = do(t, s, "POST", "/api/process-url", `{"url":"https://amzn.to/x","saveToDatabase":true}`, map[string]string{"X-Admin-Key": "s3cret"})
	if rec.Code != http.StatusOK || out["saved"] != true {
		t.Errorf("expected saved result, got %d %v", rec.Code, out)
	}

	rec, _ = do(t, s, "POST", "/api/process-url", `{"url":"https://amzn.to/x"}`, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("preview without save should not need the key, got %d", rec.Code)
	}
}

func TestProcessBulk(t *testing.T) {
	s, proc := newTestServer(t, "")

	rec, out := do(t, s, "POST", "/api/process-bulk-urls", `{"urls":["https://a.com/1"," ","https://a.com/2"]}`, nil)
	if rec.Code != http.StatusOK || out["totalUrls"] != float64(2) {
		t.Fatalf("unexpected response: %d %v", rec.Code, out)
	}
	if len(proc.urls) != 2 {
		t.Errorf("blank URLs must be dropped, got %v", proc.urls)
	}

	rec, out = do(t, s, "POST", "/api/process-bulk-urls", `{"urls":[]}`, nil)
	if rec.Code != http.StatusBadRequest || out["error"] != "URLs array is required" {
		t.Errorf("expected 400, got %d %v", rec.Code, out)
	}

	rec, _ = do(t, s, "POST", "/api/process-bulk-urls", `{"urls":["a","b","c","d"]}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 above the bulk cap, got %d", rec.Code)
	}
}

func TestResolveDetectConvert(t *testing.T) {
	s, _ := newTestServer(t, "")

	rec, out := do(t, s, "POST", "/api/resolve-url", `{"url":"https://www.amazon.in/dp/B0CHX1W1XY"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve: %d", rec.Code)
	}
	info := out["platformInfo"].(map[string]any)
	if info["platform"] != "amazon" {
		t.Errorf("platform = %v", info["platform"])
	}
	resolved := out["resolved"].(map[string]any)
	if resolved["shortenerDetected"] != false {
		t.Errorf("direct link flagged as shortened: %v", resolved)
	}

	_, out = do(t, s, "POST", "/api/detect-platform", `{"url":"https://www.flipkart.com/p/itm123"}`, nil)
	if out["platform"] != "flipkart" {
		t.Errorf("detect = %v", out)
	}

	_, out = do(t, s, "POST", "/api/convert-affiliate", `{"url":"https://www.amazon.in/dp/B0CHX1W1XY"}`, nil)
	link := out["affiliateLink"].(map[string]any)
	if !strings.Contains(link["affiliateUrl"].(string), "tag=pickntrust-21") {
		t.Errorf("affiliate link = %v", link)
	}

	_, out = do(t, s, "POST", "/api/scrape-product", `{"url":"https://www.amazon.in/dp/B0CHX1W1XY"}`, nil)
	scraped := out["scraped"].(map[string]any)
	if scraped["name"] != "Kettle" || scraped["platform"] != "amazon" {
		t.Errorf("scraped = %v", scraped)
	}
}

func TestStatusAndPlatforms(t *testing.T) {
	s, _ := newTestServer(t, "")

	_, out := do(t, s, "GET", "/api/processing-status", "", nil)
	if out["total"] != float64(4) || out["failed"] != float64(1) {
		t.Errorf("status = %v", out)
	}

	_, out = do(t, s, "GET", "/api/supported-platforms", "", nil)
	platforms := out["platforms"].([]any)
	if len(platforms) < 5 {
		t.Errorf("expected the built-in platforms, got %d", len(platforms))
	}
	if len(out["shorteners"].([]any)) == 0 || len(out["categories"].([]any)) == 0 {
		t.Errorf("missing shorteners or categories: %v", out)
	}
}

func TestClearQueue(t *testing.T) {
	s, proc := newTestServer(t, "s3cret")

	rec, _ := do(t, s, "POST", "/api/admin/clear-queue", "", nil)
	if rec.Code != http.StatusUnauthorized || proc.cleared {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec, out := do(t, s, "POST", "/api/admin/clear-queue", "", map[string]string{"X-Admin-Key": "s3cret"})
	if rec.Code != http.StatusOK || !proc.cleared || out["message"] == "" {
		t.Errorf("expected cleared queue, got %d %v", rec.Code, out)
	}
}

func TestBodyLimit(t *testing.T) {
	s, _ := newTestServer(t, "")
	big := `{"url":"` + strings.Repeat("a", 2<<20) + `"}`

	req := httptest.NewRequest("POST", "/api/process-url", bytes.NewBufferString(big))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t, "")
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "dealcard_urls_processed_total") {
		t.Errorf("metrics route: %d", rec.Code)
	}
}
