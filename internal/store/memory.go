package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/moideas/internal/batch"
)

// InMemoryStore implements ResultStore for testing and for runs with the
// store disabled.
type InMemoryStore struct {
	mu      sync.RWMutex
	batches []Batch
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// SaveBatch stores a copy of b.
func (s *InMemoryStore) SaveBatch(ctx context.Context, b Batch) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	b.Summaries = slices.Clone(b.Summaries)
	s.batches = append(s.batches, b)
	return b.ID, nil
}

// ListBatches returns up to limit batches, newest first.
func (s *InMemoryStore) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Batch, 0, len(s.batches))
	for i := len(s.batches) - 1; i >= 0; i-- {
		b := s.batches[i]
		b.Summaries = nil
		out = append(out, b)
	}
	slices.SortStableFunc(out, func(a, b Batch) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetSummaries returns the summaries of a batch.
func (s *InMemoryStore) GetSummaries(ctx context.Context, batchID string) ([]batch.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.batches {
		if b.ID == batchID {
			return slices.Clone(b.Summaries), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, batchID)
}

// Close is a no-op.
func (s *InMemoryStore) Close() error {
	return nil
}

var (
	_ ResultStore = (*SQLiteStore)(nil)
	_ ResultStore = (*InMemoryStore)(nil)
)
