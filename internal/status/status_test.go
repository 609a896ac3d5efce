package status

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// --- Memory Store Tests ---

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a, _ := s.Begin(ctx, "https://amzn.to/a")
	b, _ := s.Begin(ctx, "https://fkrt.it/b")
	c, _ := s.Begin(ctx, "https://example.com/c")

	if err := s.Finish(ctx, a, ""); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := s.Finish(ctx, b, "Scraping failed: timeout"); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, _ := s.Snapshot(ctx)
	want := types.QueueStatus{Total: 3, Processing: 1, Completed: 1, Failed: 1}
	if got != want {
		t.Errorf("snapshot = %+v, want %+v", got, want)
	}

	e, ok := s.Entry(b)
	if !ok || e.Error != "Scraping failed: timeout" || e.FinishedAt.IsZero() {
		t.Errorf("failed entry not recorded: %+v", e)
	}
	if e, _ := s.Entry(c); e.State != StateProcessing {
		t.Errorf("unfinished entry state = %s", e.State)
	}

	if err := s.Finish(ctx, "missing", ""); err == nil {
		t.Error("expected error for unknown entry")
	}

	s.Clear(ctx)
	if got, _ := s.Snapshot(ctx); got != (types.QueueStatus{}) {
		t.Errorf("snapshot after clear = %+v", got)
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := s.Begin(ctx, "https://example.com")
			s.Finish(ctx, id, "")
		}()
	}
	wg.Wait()

	got, _ := s.Snapshot(ctx)
	if got.Total != 50 || got.Completed != 50 {
		t.Errorf("snapshot = %+v", got)
	}
}

// --- Factory Tests ---

func TestNewBackends(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.StatusConfig{}, testLogger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("default backend should be memory, got %T", s)
	}

	if _, err := New(ctx, config.StatusConfig{Backend: "etcd"}, testLogger); err == nil {
		t.Error("expected error for unknown backend")
	}

	if _, err := New(ctx, config.StatusConfig{Backend: "redis", RedisURL: "not a url"}, testLogger); err == nil {
		t.Error("expected error for malformed redis URL")
	}
}

func TestHashKey(t *testing.T) {
	if hashKey("") != "dealcard:processing" || hashKey("x") != "x:processing" {
		t.Errorf("unexpected keys: %s %s", hashKey(""), hashKey("x"))
	}
}
