package driven

import (
	"context"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are usable by testing
// connectivity to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the
	// provider at the given vector dimension.
	ValidateEmbedding(ctx context.Context, config domain.EmbeddingSettings, dimension int) error

	// ValidateLLM validates an answer generator configuration.
	ValidateLLM(ctx context.Context, config domain.LLMSettings) error
}
