package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driving"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// scanCheckInterval is how many chunks the keyword scan visits between
// context checks.
const scanCheckInterval = 1024

// SearchService retrieves chunks by vector, keyword or hybrid search over the
// current index version and reranks them.
type SearchService struct {
	index      driven.VectorIndex
	embedder   driven.EmbeddingService
	normaliser driven.QueryNormaliser
	policy     *RerankPolicy
	retrieval  domain.RetrievalSettings
}

// NewSearchService creates a new search service.
// The embedder may be nil, in which case only keyword search is served.
func NewSearchService(
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	normaliser driven.QueryNormaliser,
	retrieval domain.RetrievalSettings,
	scoring domain.ScoringSettings,
) *SearchService {
	s := domain.Settings{Retrieval: retrieval, Scoring: scoring}
	s.ApplyDefaults()
	return &SearchService{
		index:      index,
		embedder:   embedder,
		normaliser: normaliser,
		policy:     NewRerankPolicy(s.Scoring),
		retrieval:  s.Retrieval,
	}
}

// Search runs the strategy selected in opts and returns ranked results.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	strategy := opts.Strategy
	if strategy == "" {
		strategy = s.retrieval.Strategy
	}
	if !strategy.IsValid() {
		return nil, fmt.Errorf("%w: unknown search strategy %q", domain.ErrInvalidInput, strategy)
	}

	k := opts.K
	if k <= 0 {
		k = s.retrieval.K
	}
	logger.Debug("Strategy: %s, k: %d", strategy, k)

	var results []domain.SearchResult
	var err error
	switch strategy {
	case domain.SearchStrategyVector:
		results, err = s.VectorSearch(ctx, query, k, opts.SimilarityThreshold)
	case domain.SearchStrategyKeyword:
		results, err = s.KeywordSearch(ctx, query, k)
	default:
		results, err = s.HybridSearch(ctx, query, k, opts.SimilarityThreshold)
	}
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	logger.Info("Final results: %d", len(results))
	return &domain.SearchResponse{
		Query:    query,
		Strategy: strategy,
		Results:  results,
		Count:    len(results),
	}, nil
}

// VectorSearch embeds the query, over-fetches nearest neighbours, filters
// them by distance and reranks them.
func (s *SearchService) VectorSearch(
	ctx context.Context, query string, k int, threshold *float64,
) ([]domain.SearchResult, error) {
	query = collapseSpace(query)
	snap := s.index.Current()
	if query == "" || k <= 0 || snap.TotalCount() == 0 {
		logger.Debug("Vector search: nothing to search")
		return []domain.SearchResult{}, nil
	}

	vec, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	return s.rerankedVector(ctx, snap, vec, s.prepare(query), k, s.threshold(threshold))
}

// rerankedVector over-fetches k*OverFetchFactor neighbours, scores them with
// the rerank policy and keeps the best k.
func (s *SearchService) rerankedVector(
	ctx context.Context, snap driven.IndexSnapshot, vec []float32, q rerankQuery, k int, thr float64,
) ([]domain.SearchResult, error) {
	candidates, err := s.vectorCandidates(ctx, snap, vec, k*s.retrieval.OverFetchFactor, thr)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		candidates[i].Score = s.policy.Score(candidates[i], q, thr, false)
	}
	return rank(candidates, k), nil
}

// KeywordSearch scans every chunk of the current version for word overlap
// and lexical variation hits.
func (s *SearchService) KeywordSearch(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	query = collapseSpace(query)
	snap := s.index.Current()
	if query == "" || k <= 0 || snap.TotalCount() == 0 {
		logger.Debug("Keyword search: nothing to search")
		return []domain.SearchResult{}, nil
	}

	candidates, err := s.keywordCandidates(ctx, snap, s.prepare(query))
	if err != nil {
		return nil, err
	}
	return rank(candidates, k), nil
}

// HybridSearch runs the vector and keyword paths concurrently on one
// snapshot, merges their candidates and rescores them together.
func (s *SearchService) HybridSearch(
	ctx context.Context, query string, k int, threshold *float64,
) ([]domain.SearchResult, error) {
	query = collapseSpace(query)
	snap := s.index.Current()
	if query == "" || k <= 0 || snap.TotalCount() == 0 {
		logger.Debug("Hybrid search: nothing to search")
		return []domain.SearchResult{}, nil
	}

	vec, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	q := s.prepare(query)
	thr := s.threshold(threshold)

	var vectorResults, keywordResults []domain.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The vector side is a full vector search for k*OverFetchFactor, so
		// tier hits beyond the nearest neighbours still reach the merge.
		var err error
		vectorResults, err = s.rerankedVector(gctx, snap, vec, q, k*s.retrieval.OverFetchFactor, thr)
		return err
	})
	g.Go(func() error {
		found, err := s.keywordCandidates(gctx, snap, q)
		if err != nil {
			return err
		}
		keywordResults = rank(found, k*s.retrieval.KeywordFactor)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	logger.Debug("Hybrid search: merging %d vector + %d keyword candidates",
		len(vectorResults), len(keywordResults))

	merged := make([]domain.SearchResult, 0, len(vectorResults)+len(keywordResults))
	seen := make(map[string]struct{}, cap(merged))
	for _, r := range vectorResults {
		seen[r.Chunk.Key()] = struct{}{}
		merged = append(merged, r)
	}
	for _, r := range keywordResults {
		if _, ok := seen[r.Chunk.Key()]; ok {
			continue
		}
		seen[r.Chunk.Key()] = struct{}{}
		d, err := snap.Distance(vec, r.Position)
		if err != nil {
			return nil, fmt.Errorf("hybrid search: %w", err)
		}
		r.Distance = &d
		merged = append(merged, r)
	}
	logger.Debug("Hybrid search: %d unique candidates", len(merged))

	for i := range merged {
		merged[i].Score = s.policy.Score(merged[i], q, thr, true)
	}
	return rank(merged, k), nil
}

// vectorCandidates returns up to fetch nearest neighbours within thr. When the
// filter removes every hit, the closest FallbackCount hits are kept instead.
func (s *SearchService) vectorCandidates(
	ctx context.Context, snap driven.IndexSnapshot, vec []float32, fetch int, thr float64,
) ([]domain.SearchResult, error) {
	fetch = min(fetch, snap.TotalCount())
	hits, err := snap.Search(ctx, vec, fetch)
	if err != nil {
		logger.Warn("Vector index search failed: %v", err)
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits for %d requested", len(hits), fetch)

	if thr >= domain.SimilarityThresholdDisabled {
		return hits, nil
	}

	kept := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Distance != nil && *h.Distance <= thr {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 && len(hits) > 0 {
		n := min(s.retrieval.FallbackCount, len(hits))
		logger.Debug("Vector search: threshold %.2f removed every hit, keeping closest %d", thr, n)
		return hits[:n], nil
	}
	logger.Debug("Vector search: %d hits within threshold %.2f", len(kept), thr)
	return kept, nil
}

func (s *SearchService) keywordCandidates(
	ctx context.Context, snap driven.IndexSnapshot, q rerankQuery,
) ([]domain.SearchResult, error) {
	var found []domain.SearchResult
	for pos, chunk := range snap.Chunks() {
		if pos%scanCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("keyword search: %w", err)
			}
		}
		score, ok := s.policy.KeywordScore(q, newCandidateFields(chunk))
		if !ok {
			continue
		}
		found = append(found, domain.SearchResult{Chunk: chunk, Score: score, Position: pos})
	}
	logger.Debug("Keyword search: %d matching chunks", len(found))
	return found, nil
}

func (s *SearchService) embed(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		logger.Warn("Vector search unavailable: embedding service is nil")
		return nil, domain.ErrEmbeddingUnavailable
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vec))
	return vec, nil
}

// prepare computes the raw, preprocessed and expanded forms of a query once.
func (s *SearchService) prepare(query string) rerankQuery {
	q := rerankQuery{raw: newQueryTerms(query)}
	if s.normaliser == nil {
		return q
	}
	processed := s.normaliser.Preprocess(query)
	if processed != query {
		logger.Debug("Preprocessed query: %q", processed)
		q.processed = newQueryTerms(processed)
	}
	q.variations = s.normaliser.Expand(query)
	logger.Debug("Query variations: %d", len(q.variations))
	return q
}

func (s *SearchService) threshold(t *float64) float64 {
	if t == nil {
		return s.retrieval.SimilarityThreshold
	}
	return *t
}

// rank sorts by score descending, ties by corpus position, truncates to k
// and assigns 1-based ranks.
func rank(results []domain.SearchResult, k int) []domain.SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Position < results[j].Position
	})
	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	if results == nil {
		return []domain.SearchResult{}
	}
	return results
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
