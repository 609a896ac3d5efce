package observability

import (
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics(testLogger)
	m.URLsProcessed.Add(3)
	m.URLsFailed.Add(1)
	m.ActiveRuns.Add(2)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE dealcard_urls_processed_total counter",
		"dealcard_urls_processed_total 3\n",
		"dealcard_urls_failed_total 1\n",
		"# TYPE dealcard_active_runs gauge",
		"dealcard_active_runs 2\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(testLogger)
	m.CardsSaved.Add(5)
	s := m.Snapshot()
	if s["cards_saved"] != 5 || s["urls_processed"] != 0 {
		t.Errorf("unexpected snapshot: %v", s)
	}
	m.LogSummary()
}
