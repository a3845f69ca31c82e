package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Texts found in vectors get that vector, everything else gets fallback.
type mockEmbeddingService struct {
	vectors  map[string][]float32
	fallback []float32
	embedErr error
	calls    int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(m.fallback)
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockGenerator implements driven.AnswerGenerator for testing.
type mockGenerator struct {
	name     string
	answer   string
	err      error
	passages []domain.SearchResult
}

func (m *mockGenerator) Generate(_ context.Context, _ string, passages []domain.SearchResult) (string, error) {
	m.passages = passages
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockGenerator) ModelName() string {
	return m.name
}

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	opts    domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return &domain.SearchResponse{
		Query:    query,
		Strategy: opts.Strategy,
		Results:  m.results,
		Count:    len(m.results),
	}, nil
}

// --- Helpers ---

// newIndexWith publishes chunks and their vectors as the current version of
// a fresh index in a temporary directory.
func newIndexWith(t *testing.T, vectors [][]float32, chunks []domain.Chunk) *vectorindex.Index {
	t.Helper()
	require.NotEmpty(t, vectors)

	idx, err := vectorindex.New(t.TempDir(), len(vectors[0]))
	require.NoError(t, err)

	b, err := idx.CreateNewIndex()
	require.NoError(t, err)
	require.NoError(t, b.AddVectors(vectors, chunks))
	snap, err := b.Save(context.Background())
	require.NoError(t, err)
	require.NoError(t, idx.Activate(snap))
	return idx
}

func chunk(campaignID, title, text string) domain.Chunk {
	return domain.Chunk{
		ID:         campaignID + "-0",
		CampaignID: campaignID,
		Title:      title,
		Text:       text,
		Type:       domain.ChunkTypeSemantic,
	}
}

func ptr(f float64) *float64 {
	return &f
}
