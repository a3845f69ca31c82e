package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/normalisers/query"
)

// lineIndex publishes n chunks whose vectors lie on a line, so chunk i is
// at squared distance (i+2)^2 from the origin.
func lineIndex(t *testing.T, n int) ([]domain.Chunk, *mockEmbeddingService, *SearchService) {
	t.Helper()
	chunks := make([]domain.Chunk, n)
	vectors := make([][]float32, n)
	for i := range n {
		chunks[i] = chunk(fmt.Sprintf("c%d", i), fmt.Sprintf("Offer %d", i), "plain offer text")
		vectors[i] = []float32{float32(i + 2), 0}
	}
	idx := newIndexWith(t, vectors, chunks)
	emb := &mockEmbeddingService{fallback: []float32{0, 0}}
	svc := NewSearchService(idx, emb, query.New(), domain.RetrievalSettings{}, domain.ScoringSettings{})
	return chunks, emb, svc
}

func TestNewSearchService_Defaults(t *testing.T) {
	_, _, svc := lineIndex(t, 1)
	d := domain.DefaultSettings()
	assert.Equal(t, d.Retrieval, svc.retrieval)
	assert.Equal(t, d.Scoring, svc.policy.scoring)
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, emb, svc := lineIndex(t, 3)

	resp, err := svc.Search(context.Background(), "   ", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Count)
	assert.Equal(t, 0, emb.calls)
}

func TestSearch_EmptyIndex(t *testing.T) {
	empty, err := vectorindex.New(t.TempDir(), 2)
	require.NoError(t, err)

	svc := NewSearchService(empty, &mockEmbeddingService{fallback: []float32{0, 0}}, query.New(),
		domain.RetrievalSettings{}, domain.ScoringSettings{})
	for _, strategy := range []domain.SearchStrategy{
		domain.SearchStrategyVector, domain.SearchStrategyKeyword, domain.SearchStrategyHybrid,
	} {
		resp, err := svc.Search(context.Background(), "a", domain.SearchOptions{Strategy: strategy})
		require.NoError(t, err, strategy)
		assert.Empty(t, resp.Results, strategy)
	}
}

func TestSearch_InvalidStrategy(t *testing.T) {
	_, _, svc := lineIndex(t, 1)

	_, err := svc.Search(context.Background(), "offer", domain.SearchOptions{Strategy: "fuzzy"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_DefaultsToHybrid(t *testing.T) {
	_, _, svc := lineIndex(t, 3)

	resp, err := svc.Search(context.Background(), "offer", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchStrategyHybrid, resp.Strategy)
	assert.Equal(t, len(resp.Results), resp.Count)
	assert.LessOrEqual(t, resp.Count, domain.DefaultSettings().Retrieval.K)
}

func TestSearch_RanksAndOrder(t *testing.T) {
	_, _, svc := lineIndex(t, 8)

	resp, err := svc.Search(context.Background(), "offer", domain.SearchOptions{K: 5})
	require.NoError(t, err)
	require.Len(t, resp.Results, 5)
	for i, r := range resp.Results {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, resp.Results[i-1].Score, r.Score)
		}
	}
}

func TestVectorSearch_ThresholdFilters(t *testing.T) {
	_, _, svc := lineIndex(t, 12)

	// Distances are 4, 9, 16, ...
	results, err := svc.VectorSearch(context.Background(), "query", 5, ptr(10))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c0", results[0].Chunk.CampaignID)
	assert.Equal(t, "c1", results[1].Chunk.CampaignID)
	require.NotNil(t, results[0].Distance)
	assert.InDelta(t, 4.0, *results[0].Distance, 1e-9)
}

func TestVectorSearch_ThresholdFallback(t *testing.T) {
	_, _, svc := lineIndex(t, 12)

	results, err := svc.VectorSearch(context.Background(), "query", 20, ptr(1))
	require.NoError(t, err)
	assert.Len(t, results, domain.DefaultSettings().Retrieval.FallbackCount)
}

func TestVectorSearch_ThresholdDisabled(t *testing.T) {
	_, _, svc := lineIndex(t, 12)

	results, err := svc.VectorSearch(context.Background(), "query", 20, ptr(domain.SimilarityThresholdDisabled))
	require.NoError(t, err)
	assert.Len(t, results, 12)
}

func TestVectorSearch_TruncatesToK(t *testing.T) {
	_, _, svc := lineIndex(t, 12)

	results, err := svc.VectorSearch(context.Background(), "query", 3, nil)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestVectorSearch_NoEmbedder(t *testing.T) {
	idx := newIndexWith(t, [][]float32{{1, 0}}, []domain.Chunk{chunk("1", "A", "a")})
	svc := NewSearchService(idx, nil, query.New(), domain.RetrievalSettings{}, domain.ScoringSettings{})

	_, err := svc.VectorSearch(context.Background(), "a", 5, nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	// Keyword search does not need embeddings.
	results, err := svc.KeywordSearch(context.Background(), "a", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestVectorSearch_EmbeddingFailure(t *testing.T) {
	_, emb, svc := lineIndex(t, 3)
	emb.embedErr = fmt.Errorf("%w: provider down", domain.ErrEmbeddingFailure)

	_, err := svc.Search(context.Background(), "offer", domain.SearchOptions{Strategy: domain.SearchStrategyVector})
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailure)

	_, err = svc.Search(context.Background(), "offer", domain.SearchOptions{Strategy: domain.SearchStrategyHybrid})
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailure)
}

func TestKeywordSearch_OnlyQualifyingChunks(t *testing.T) {
	chunks := []domain.Chunk{
		chunk("1", "Fuel Discount", "ten percent off fuel"),
		chunk("2", "Auto King", "low interest car loans"),
		chunk("3", "Holiday", "double miles on flights"),
	}
	idx := newIndexWith(t, [][]float32{{0}, {0}, {0}}, chunks)
	svc := NewSearchService(idx, nil, query.New(), domain.RetrievalSettings{}, domain.ScoringSettings{})

	results, err := svc.KeywordSearch(context.Background(), "car loans", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2", results[0].Chunk.CampaignID)
	assert.Nil(t, results[0].Distance)
}

func TestKeywordSearch_TiesByPosition(t *testing.T) {
	chunks := []domain.Chunk{
		chunk("b", "Parts", "auto parts"),
		chunk("a", "Parts", "auto parts"),
	}
	idx := newIndexWith(t, [][]float32{{0}, {0}}, chunks)
	svc := NewSearchService(idx, nil, nil, domain.RetrievalSettings{}, domain.ScoringSettings{})

	results, err := svc.KeywordSearch(context.Background(), "auto", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Chunk.CampaignID)
	assert.Equal(t, "a", results[1].Chunk.CampaignID)
}

func TestKeywordSearch_Cancelled(t *testing.T) {
	_, _, svc := lineIndex(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.KeywordSearch(ctx, "offer", 5)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHybridSearch_NoDuplicates(t *testing.T) {
	_, emb, svc := lineIndex(t, 12)

	results, err := svc.HybridSearch(context.Background(), "offer", 12, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	seen := map[string]bool{}
	for _, r := range results {
		assert.False(t, seen[r.Chunk.Key()], "duplicate %s", r.Chunk.Key())
		seen[r.Chunk.Key()] = true
		assert.NotNil(t, r.Distance)
	}
	assert.Equal(t, 1, emb.calls)
}

func TestHybridSearch_KeywordOnlyCandidatesGetDistance(t *testing.T) {
	chunks := []domain.Chunk{
		chunk("1", "Fuel Discount", "ten percent off fuel"),
		chunk("2", "Auto King", "low interest car loans"),
	}
	// Chunk 2 is far outside the threshold and only reachable by keyword.
	idx := newIndexWith(t, [][]float32{{0, 0}, {30, 0}}, chunks)
	emb := &mockEmbeddingService{fallback: []float32{0, 0}}
	svc := NewSearchService(idx, emb, query.New(), domain.RetrievalSettings{}, domain.ScoringSettings{})

	results, err := svc.HybridSearch(context.Background(), "auto king", 5, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "2", results[0].Chunk.CampaignID)
	require.NotNil(t, results[0].Distance)
	assert.InDelta(t, 900.0, *results[0].Distance, 1e-9)
}

func TestHybridSearch_RerankedVectorPool(t *testing.T) {
	chunks := []domain.Chunk{
		chunk("1", "Offer 1", "plain offer text"),
		chunk("2", "Offer 2", "plain offer text"),
		chunk("3", "Offer 3", "plain offer text"),
		chunk("4", "TV Week", "smart screens at half price"),
	}
	// The title match sits outside the two nearest neighbours and the query
	// is too short for the keyword path.
	idx := newIndexWith(t, [][]float32{{2, 0}, {3, 0}, {4, 0}, {5, 0}}, chunks)
	emb := &mockEmbeddingService{fallback: []float32{0, 0}}
	svc := NewSearchService(idx, emb, query.New(),
		domain.RetrievalSettings{OverFetchFactor: 2}, domain.ScoringSettings{})

	keyword, err := svc.KeywordSearch(context.Background(), "tv", 1)
	require.NoError(t, err)
	require.Empty(t, keyword)

	results, err := svc.HybridSearch(context.Background(), "tv", 1, ptr(100))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "4", results[0].Chunk.CampaignID)
	assert.GreaterOrEqual(t, results[0].Score, 0.90)
}

func TestHybridSearch_ExactIDOutranksSemantic(t *testing.T) {
	chunks := []domain.Chunk{
		chunk("9", "Fuel", "fuel discount"),
		chunk("autoking", "Car Loans", "low rates"),
	}
	idx := newIndexWith(t, [][]float32{{0, 0}, {5, 0}}, chunks)
	emb := &mockEmbeddingService{fallback: []float32{0, 0}}
	svc := NewSearchService(idx, emb, query.New(), domain.RetrievalSettings{}, domain.ScoringSettings{})

	results, err := svc.HybridSearch(context.Background(), "autoking", 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "autoking", results[0].Chunk.CampaignID)
	assert.GreaterOrEqual(t, results[0].Score, 0.95)
	assert.LessOrEqual(t, results[0].Score, 0.99)
}
