package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	queries []string
}

func (m *mockSearchService) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.queries = append(m.queries, query)
	results := []domain.SearchResult{
		{Rank: 1, Score: 0.8, Chunk: domain.Chunk{CampaignID: "2", Title: "Auto King", Text: "Car loans."}},
	}
	return &domain.SearchResponse{Query: query, Strategy: opts.Strategy, Results: results, Count: 1}, nil
}

// mockVersionService implements driving.VersionService for testing.
type mockVersionService struct {
	versions []domain.IndexVersion
}

func (m *mockVersionService) Versions(context.Context) ([]domain.IndexVersion, error) {
	return m.versions, nil
}

func (m *mockVersionService) Use(context.Context, string) error { return nil }

func (m *mockVersionService) UseLatest(context.Context) error { return nil }

func (m *mockVersionService) Prune(context.Context, int) ([]string, error) { return nil, nil }

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{"nil ports", nil, ErrInvalidPorts},
		{"missing search", &Ports{Versions: &mockVersionService{}}, ErrMissingSearchService},
		{"search only", &Ports{Search: &mockSearchService{}}, nil},
		{"all services", &Ports{Search: &mockSearchService{}, Versions: &mockVersionService{}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
