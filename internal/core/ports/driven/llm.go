package driven

import (
	"context"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// AnswerGenerator turns a question and retrieved passages into answer text.
// This is an optional service - when nil, only retrieval is served.
//
// Implementations may include:
//   - OpenAI chat completions (or any compatible endpoint)
//   - A fixed template over the retrieved context
type AnswerGenerator interface {
	// Generate composes an answer from the ranked passages.
	Generate(ctx context.Context, question string, passages []domain.SearchResult) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string
}
