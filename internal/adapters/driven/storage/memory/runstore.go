package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
)

// Ensure IndexRunStore implements the interface.
var _ driven.IndexRunStore = (*IndexRunStore)(nil)

// IndexRunStore is an in-memory implementation of driven.IndexRunStore.
type IndexRunStore struct {
	mu   sync.RWMutex
	runs []domain.IndexRun
}

// NewIndexRunStore creates a new in-memory run store.
func NewIndexRunStore() *IndexRunStore {
	return &IndexRunStore{}
}

// Record stores a run, replacing an earlier record with the same ID.
func (s *IndexRunStore) Record(_ context.Context, run domain.IndexRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == run.ID {
			s.runs[i] = run
			return nil
		}
	}
	s.runs = append(s.runs, run)
	return nil
}

// List returns the most recent runs, newest first. Zero limit returns all.
func (s *IndexRunStore) List(_ context.Context, limit int) ([]domain.IndexRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest insertion first, so runs with equal start times stay ordered.
	result := make([]domain.IndexRun, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		result = append(result, s.runs[i])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
