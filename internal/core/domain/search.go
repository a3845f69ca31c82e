package domain

import (
	"fmt"
	"strings"
)

// SearchStrategy selects the retrieval path for a query.
type SearchStrategy string

// Available search strategies.
const (
	// SearchStrategyVector uses embedding nearest-neighbour search only.
	SearchStrategyVector SearchStrategy = "vector"

	// SearchStrategyKeyword uses the lexical corpus scan only.
	SearchStrategyKeyword SearchStrategy = "keyword"

	// SearchStrategyHybrid fuses vector and keyword candidates and reranks them.
	SearchStrategyHybrid SearchStrategy = "hybrid"
)

// IsValid returns true if the strategy is recognised.
func (s SearchStrategy) IsValid() bool {
	switch s {
	case SearchStrategyVector, SearchStrategyKeyword, SearchStrategyHybrid:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s SearchStrategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s SearchStrategy) Description() string {
	switch s {
	case SearchStrategyVector:
		return "Vector (semantic search)"
	case SearchStrategyKeyword:
		return "Keyword (lexical search)"
	case SearchStrategyHybrid:
		return "Hybrid (semantic + lexical with reranking)"
	default:
		return "Unknown"
	}
}

// ParseSearchStrategy converts user input into a SearchStrategy.
// An empty string selects the hybrid default.
func ParseSearchStrategy(s string) (SearchStrategy, error) {
	if strings.TrimSpace(s) == "" {
		return SearchStrategyHybrid, nil
	}
	strategy := SearchStrategy(strings.ToLower(strings.TrimSpace(s)))
	if !strategy.IsValid() {
		return "", fmt.Errorf("%w: unknown search strategy %q", ErrInvalidInput, s)
	}
	return strategy, nil
}

// SimilarityThresholdDisabled is the threshold at or above which vector
// candidates are not filtered by distance.
const SimilarityThresholdDisabled = 100.0

// SearchOptions configures a search query.
type SearchOptions struct {
	// K is the maximum number of results.
	K int

	// Strategy selects vector, keyword or hybrid retrieval.
	Strategy SearchStrategy

	// SimilarityThreshold drops vector candidates whose distance exceeds it.
	// Nil uses the configured default; values >= 100 disable filtering.
	SimilarityThreshold *float64
}

// SearchResult is a scored copy of a chunk produced for a single query.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk `json:"chunk"`

	// Score is the raw distance for index hits, or the rerank score once
	// the retriever has scored the candidate.
	Score float64 `json:"score"`

	// Rank is the 1-based position in the result list.
	Rank int `json:"rank,omitempty"`

	// Distance is the squared L2 distance to the query vector, when known.
	Distance *float64 `json:"distance,omitempty"`

	// Position is the chunk's offset in the index version (corpus order).
	Position int `json:"-"`
}

// SearchResponse is what the query-answering caller receives.
type SearchResponse struct {
	Query    string         `json:"query"`
	Strategy SearchStrategy `json:"strategy"`
	Results  []SearchResult `json:"results"`
	Count    int            `json:"count"`
}
