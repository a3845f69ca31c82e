package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
)

// Ensure CampaignStore implements the interface.
var _ driven.CampaignStore = (*CampaignStore)(nil)

// CampaignStore is an in-memory implementation of driven.CampaignStore.
type CampaignStore struct {
	mu        sync.RWMutex
	campaigns map[string]domain.Campaign
}

// NewCampaignStore creates a new in-memory campaign store.
func NewCampaignStore() *CampaignStore {
	return &CampaignStore{
		campaigns: make(map[string]domain.Campaign),
	}
}

// Save stores or replaces campaigns by ID.
func (s *CampaignStore) Save(_ context.Context, campaigns []domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range campaigns {
		if c.ID == "" {
			return domain.ErrInvalidInput
		}
	}
	for _, c := range campaigns {
		s.campaigns[c.ID] = c
	}
	return nil
}

// Get retrieves a campaign by ID.
func (s *CampaignStore) Get(_ context.Context, id string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// List returns all campaigns ordered by ID.
func (s *CampaignStore) List(_ context.Context) ([]domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Delete removes a campaign.
func (s *CampaignStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.campaigns, id)
	return nil
}

// Count returns the number of stored campaigns.
func (s *CampaignStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.campaigns), nil
}
