package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/aretw0/nvencoder/pkg/domain"
)

// Store implements ports.ResultStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.FileResult
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.FileResult),
	}
}

// Save stores a copy of the result.
func (s *Store) Save(ctx context.Context, result domain.FileResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[result.ID] = result
	return nil
}

// Load retrieves a result.
func (s *Store) Load(ctx context.Context, id string) (domain.FileResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.data[id]
	if !ok {
		return domain.FileResult{}, domain.ErrResultNotFound
	}
	return res, nil
}

// Delete removes the result.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the results of a batch, or of every batch, ordered by start time.
func (s *Store) List(ctx context.Context, batchID string) ([]domain.FileResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.FileResult, 0, len(s.data))
	for _, r := range s.data {
		if batchID == "" || r.BatchID == batchID {
			results = append(results, r)
		}
	}
	SortByStart(results)
	return results, nil
}

// SortByStart orders results by start time, then ID.
func SortByStart(results []domain.FileResult) {
	slices.SortStableFunc(results, func(a, b domain.FileResult) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
