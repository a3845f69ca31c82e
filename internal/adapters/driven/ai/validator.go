package ai

import (
	"context"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct {
	deps Deps
}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator(deps Deps) *ConfigValidator {
	return &ConfigValidator{deps: deps}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config domain.EmbeddingSettings, dimension int) error {
	return ValidateEmbeddingConfig(ctx, config, dimension, v.deps)
}

// ValidateLLM validates an LLM configuration.
func (v *ConfigValidator) ValidateLLM(_ context.Context, config domain.LLMSettings) error {
	return ValidateLLMConfig(config, v.deps)
}
