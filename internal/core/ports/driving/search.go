package driving

import (
	"context"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// SearchService provides retrieval to external actors.
type SearchService interface {
	// Search runs the strategy selected in opts and returns ranked results.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}

// QueryService answers questions from retrieved campaign passages.
type QueryService interface {
	// Ask retrieves passages for question and composes an answer.
	Ask(ctx context.Context, question string, opts domain.SearchOptions) (*domain.Answer, error)
}
