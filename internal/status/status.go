// Package status records the progress of URL runs for introspection.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/types"
)

// State is the lifecycle position of one URL run.
type State string

const (
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Entry is one recorded URL run.
type Entry struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	State      State     `json:"state"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Store is the interface for status backends.
type Store interface {
	// Begin records a new run for url and returns its entry ID.
	Begin(ctx context.Context, url string) (string, error)

	// Finish marks the run completed, or failed when errMsg is non-empty.
	Finish(ctx context.Context, id, errMsg string) error

	// Snapshot counts entries by state.
	Snapshot(ctx context.Context) (types.QueueStatus, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	Close() error
}

// New builds the backend named by cfg.Backend.
func New(ctx context.Context, cfg config.StatusConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, cfg.RedisURL, cfg.KeyPrefix, cfg.TTL, logger)
	default:
		return nil, fmt.Errorf("unsupported status backend: %s", cfg.Backend)
	}
}

func finish(e *Entry, errMsg string, now time.Time) {
	e.FinishedAt = now
	if errMsg != "" {
		e.State = StateFailed
		e.Error = errMsg
		return
	}
	e.State = StateCompleted
}

func tally(entries []Entry) types.QueueStatus {
	qs := types.QueueStatus{Total: len(entries)}
	for _, e := range entries {
		switch e.State {
		case StateProcessing:
			qs.Processing++
		case StateCompleted:
			qs.Completed++
		case StateFailed:
			qs.Failed++
		}
	}
	return qs
}
