package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/IshaanNene/dealcard/internal/pipeline"
	"github.com/IshaanNene/dealcard/internal/platform"
	"github.com/IshaanNene/dealcard/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeProcessor struct {
	last pipeline.Options
}

func (f *fakeProcessor) ProcessURL(_ context.Context, url string, opts pipeline.Options) types.ProcessingResult {
	f.last = opts
	if strings.Contains(url, "broken") {
		return types.ProcessingResult{OriginalURL: url, Error: "Scraping failed: status 404"}
	}
	return types.ProcessingResult{
		Success:     true,
		OriginalURL: url,
		ProductCard: &types.ProductCard{ID: "flipkart_1_abcd1234", Name: "Kettle"},
	}
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, raw string) types.ResolvedURL {
	return types.ResolvedURL{OriginalURL: raw, FinalURL: "https://www.flipkart.com/p/itm1", ShortenerDetected: true}
}

func newTestServer() (*Server, *fakeProcessor) {
	proc := &fakeProcessor{}
	return New(proc, platform.DefaultRegistry(), fakeResolver{}, testLogger), proc
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

// --- Tool Tests ---

func TestProcessURLTool(t *testing.T) {
	s, proc := newTestServer()
	ctx := context.Background()

	res, err := s.handleProcessURL(ctx, call(map[string]any{"url": "https://fkrt.it/x", "target_page": "loot-box", "save": true}))
	if err != nil || res.IsError {
		t.Fatalf("unexpected failure: %v %v", err, res)
	}
	var out types.ProcessingResult
	if err := json.Unmarshal([]byte(text(t, res)), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if out.ProductCard.ID != "flipkart_1_abcd1234" {
		t.Errorf("card = %+v", out.ProductCard)
	}
	if proc.last.TargetPage != "loot-box" || !proc.last.Save {
		t.Errorf("options not forwarded: %+v", proc.last)
	}

	res, _ = s.handleProcessURL(ctx, call(map[string]any{"url": "https://example.com/broken"}))
	if !res.IsError || !strings.Contains(text(t, res), "Scraping failed") {
		t.Error("failed run should be a tool error")
	}

	res, _ = s.handleProcessURL(ctx, call(map[string]any{}))
	if !res.IsError {
		t.Error("missing url should be a tool error")
	}
}

func TestResolveAndDetectTools(t *testing.T) {
	s, _ := newTestServer()
	ctx := context.Background()

	res, _ := s.handleResolveURL(ctx, call(map[string]any{"url": "https://fkrt.it/x"}))
	if !strings.Contains(text(t, res), `"finalUrl": "https://www.flipkart.com/p/itm1"`) {
		t.Errorf("resolve output: %s", text(t, res))
	}

	res, _ = s.handleDetectPlatform(ctx, call(map[string]any{"url": "https://www.myntra.com/shoes/123456/buy"}))
	var info types.PlatformInfo
	json.Unmarshal([]byte(text(t, res)), &info)
	if info.Platform != "myntra" {
		t.Errorf("platform = %s", info.Platform)
	}

	res, _ = s.handleListPlatforms(ctx, call(nil))
	var profiles []platform.Profile
	json.Unmarshal([]byte(text(t, res)), &profiles)
	if len(profiles) == 0 || profiles[len(profiles)-1].Platform != types.GenericPlatform {
		t.Errorf("expected platform list ending in generic, got %d entries", len(profiles))
	}
}

func TestBearerAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := bearerAuth("token", ok)

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"token", http.StatusUnauthorized},
		{"Bearer token", http.StatusTeapot},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("POST", "/mcp", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("Authorization %q: got %d, want %d", tc.header, rec.Code, tc.want)
		}
	}
}
