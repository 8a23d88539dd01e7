package store

import (
	"context"
	"sync"

	"github.com/mausam360/backend/internal/preferences"
)

// MemoryStore is a concurrency-safe in-memory preference repository.
// Records are copied on the way in and out so callers never share slices
// with the store.
type MemoryStore struct {
	mu sync.Mutex

	// key: user id
	records map[string]preferences.Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]preferences.Record),
	}
}

// Get returns the record for userID.
func (s *MemoryStore) Get(_ context.Context, userID string) (preferences.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return preferences.Record{}, preferences.ErrNotFound
	}
	return rec.Clone(), nil
}

// Mutate applies fn under the store lock, so concurrent calls for the same
// user observe each other's effects.
func (s *MemoryStore) Mutate(
	_ context.Context,
	userID string,
	init func() preferences.Record,
	fn func(*preferences.Record),
) (preferences.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		if init == nil {
			return preferences.Record{}, preferences.ErrNotFound
		}
		rec = init()
	}

	rec = rec.Clone()
	fn(&rec)
	s.records[userID] = rec.Clone()
	return rec, nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Health always succeeds for the in-memory store.
func (s *MemoryStore) Health(context.Context) error {
	return nil
}
