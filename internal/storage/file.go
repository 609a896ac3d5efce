package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore appends rows as newline-delimited JSON (one object per line).
type FileStore struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewFileStore opens outputPath for appending, creating parent directories.
func NewFileStore(outputPath string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	return &FileStore{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "file_store"),
	}, nil
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Save(ctx context.Context, row *ContentRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(row); err != nil {
		return fmt.Errorf("encode JSONL: %w", err)
	}
	s.count++
	s.logger.Debug("row appended", "path", s.path, "title", row.Title, "total", s.count)
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("JSONL written", "path", s.path, "rows", s.count)
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}
