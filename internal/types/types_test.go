package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewRequestRejectsNonHTTP(t *testing.T) {
	for _, raw := range []string{"not-a-url", "ftp://example.com/x", "https://"} {
		_, err := NewRequest(raw)
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("NewRequest(%q) error = %v, want ErrInvalidURL", raw, err)
		}
	}

	req, err := NewRequest("https://www.amazon.in/dp/B0CHX1W1XY")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if req.Domain() != "www.amazon.in" {
		t.Errorf("unexpected domain %q", req.Domain())
	}
	if req.Method != "GET" {
		t.Errorf("expected GET, got %q", req.Method)
	}
}

func TestErrorWrappersUnwrap(t *testing.T) {
	scrapeErr := &ScrapeError{URL: "https://x.test/p", Platform: "generic", Missing: []string{"price"}, Err: ErrNoProductData}
	if !errors.Is(scrapeErr, ErrNoProductData) {
		t.Error("ScrapeError should unwrap to ErrNoProductData")
	}
	if !strings.Contains(scrapeErr.Error(), "price") {
		t.Errorf("ScrapeError message should list missing fields: %q", scrapeErr.Error())
	}

	storeErr := &StorageError{Backend: "postgres", Err: ErrNoStore}
	if !errors.Is(storeErr, ErrNoStore) {
		t.Error("StorageError should unwrap")
	}

	var fe *FetchError
	wrapped := &PipelineError{Stage: "scrape", Err: &FetchError{URL: "u", StatusCode: 503, Err: ErrEmptyResponse}}
	if !errors.As(wrapped, &fe) || fe.StatusCode != 503 {
		t.Error("PipelineError should expose the inner FetchError")
	}
}

func TestProcessingResultJSONShape(t *testing.T) {
	res := ProcessingResult{Success: false, OriginalURL: "not-a-url", Error: "Scraping failed: x", ProcessingTime: 3}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	for _, key := range []string{`"success":false`, `"originalUrl":"not-a-url"`, `"error":"Scraping failed: x"`, `"processingTime":3`} {
		if !strings.Contains(got, key) {
			t.Errorf("missing %s in %s", key, got)
		}
	}
	if strings.Contains(got, "productCard") {
		t.Errorf("failed result should omit productCard: %s", got)
	}
}
