package storage

import (
	"context"
	"log/slog"
)

// MultiStore writes each row to several backends.
type MultiStore struct {
	backends []ContentStore
	logger   *slog.Logger
}

// NewMultiStore creates a store that fans out to multiple backends.
func NewMultiStore(backends []ContentStore, logger *slog.Logger) *MultiStore {
	return &MultiStore{
		backends: backends,
		logger:   logger.With("component", "multi_store"),
	}
}

func (s *MultiStore) Name() string { return "multi" }

// Save writes to every backend and returns the first error, if any.
func (s *MultiStore) Save(ctx context.Context, row *ContentRow) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Save(ctx, row); err != nil {
			s.logger.Error("backend save failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiStore) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
