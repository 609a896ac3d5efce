package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/dealcard/internal/types"
)

// MemoryStore keeps entries for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Begin(_ context.Context, url string) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.entries[id] = &Entry{ID: id, URL: url, State: StateProcessing, StartedAt: s.now()}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Finish(_ context.Context, id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("status entry %s not found", id)
	}
	finish(e, errMsg, s.now())
	return nil
}

func (s *MemoryStore) Snapshot(_ context.Context) (types.QueueStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, *e)
	}
	return tally(entries), nil
}

// Entry returns a copy of the entry with the given ID.
func (s *MemoryStore) Entry(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
