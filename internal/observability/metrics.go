package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for the card pipeline.
type Metrics struct {
	// URL run metrics
	URLsProcessed atomic.Int64
	URLsSucceeded atomic.Int64
	URLsFailed    atomic.Int64
	URLsResolved  atomic.Int64 // shortened links that were unwrapped
	ActiveRuns    atomic.Int32

	// Stage metrics
	ScrapeFailures   atomic.Int64
	LinksConverted   atomic.Int64
	CardsAssembled   atomic.Int64
	CardsSaved       atomic.Int64
	SaveErrors       atomic.Int64
	PanicsRecovered  atomic.Int64
	ProcessingMillis atomic.Int64

	// Bulk metrics
	BulkRuns    atomic.Int64
	BulkBatches atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

type metric struct {
	name  string
	help  string
	kind  string
	value int64
}

func (m *Metrics) collect() []metric {
	return []metric{
		{"dealcard_urls_processed_total", "Total URL runs started", "counter", m.URLsProcessed.Load()},
		{"dealcard_urls_succeeded_total", "Total URL runs that produced a card", "counter", m.URLsSucceeded.Load()},
		{"dealcard_urls_failed_total", "Total URL runs that failed", "counter", m.URLsFailed.Load()},
		{"dealcard_urls_resolved_total", "Total shortened links resolved", "counter", m.URLsResolved.Load()},
		{"dealcard_active_runs", "URL runs currently in flight", "gauge", int64(m.ActiveRuns.Load())},
		{"dealcard_scrape_failures_total", "Total scrape failures", "counter", m.ScrapeFailures.Load()},
		{"dealcard_links_converted_total", "Total links rewritten to affiliate form", "counter", m.LinksConverted.Load()},
		{"dealcard_cards_assembled_total", "Total product cards assembled", "counter", m.CardsAssembled.Load()},
		{"dealcard_cards_saved_total", "Total cards written to the content store", "counter", m.CardsSaved.Load()},
		{"dealcard_save_errors_total", "Total content store write failures", "counter", m.SaveErrors.Load()},
		{"dealcard_panics_recovered_total", "Total panics recovered inside URL runs", "counter", m.PanicsRecovered.Load()},
		{"dealcard_processing_milliseconds_total", "Cumulative URL run time", "counter", m.ProcessingMillis.Load()},
		{"dealcard_bulk_runs_total", "Total bulk runs", "counter", m.BulkRuns.Load()},
		{"dealcard_bulk_batches_total", "Total bulk batches executed", "counter", m.BulkBatches.Load()},
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	for _, metric := range m.collect() {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"urls_processed":   m.URLsProcessed.Load(),
		"urls_succeeded":   m.URLsSucceeded.Load(),
		"urls_failed":      m.URLsFailed.Load(),
		"urls_resolved":    m.URLsResolved.Load(),
		"active_runs":      int64(m.ActiveRuns.Load()),
		"scrape_failures":  m.ScrapeFailures.Load(),
		"links_converted":  m.LinksConverted.Load(),
		"cards_assembled":  m.CardsAssembled.Load(),
		"cards_saved":      m.CardsSaved.Load(),
		"save_errors":      m.SaveErrors.Load(),
		"panics_recovered": m.PanicsRecovered.Load(),
		"bulk_runs":        m.BulkRuns.Load(),
		"bulk_batches":     m.BulkBatches.Load(),
	}
}

// LogSummary writes the current counters at info level.
func (m *Metrics) LogSummary() {
	args := make([]any, 0, 2*len(m.collect()))
	for k, v := range m.Snapshot() {
		args = append(args, k, v)
	}
	m.logger.Info("pipeline metrics", args...)
}
