// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/campaign-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/campaign-rag/internal/adapters/driven/embedding/openai"
	openaillm "github.com/custodia-labs/campaign-rag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/llm/template"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Deps carries the optional collaborators generators can use.
type Deps struct {
	// Normaliser lets the OpenAI generator note query rewrites in its prompt.
	Normaliser driven.QueryNormaliser

	// Prompts supplies a customised system prompt.
	Prompts driven.PromptStore

	// Getenv resolves API key variables. Defaults to os.Getenv.
	Getenv func(string) string
}

func (d Deps) getenv(key string) string {
	if d.Getenv != nil {
		return d.Getenv(key)
	}
	return os.Getenv(key)
}

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	// EmbeddingService is nil when the configured provider is unreachable.
	EmbeddingService driven.EmbeddingService

	// Generator composes answers. Never nil after Init.
	Generator driven.AnswerGenerator

	// Fallback answers when Generator fails. Nil when Generator is the template.
	Fallback driven.AnswerGenerator

	Warnings []string // Non-fatal issues that caused fallback.
	FellBack bool     // True if fell back to keyword-only retrieval.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
}

// Init creates and validates the AI services described by settings.
// Unreachable providers are reported in Warnings rather than failing, so
// keyword retrieval and template answers keep working.
func Init(ctx context.Context, settings domain.Settings, deps Deps) *InitResult {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(ctx, settings.Embedding, settings.Index.Dimension, deps)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		result.FellBack = true
	}
	result.EmbeddingService = embedder

	generator, err := CreateAnswerGenerator(settings.LLM, deps)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		generator = template.New()
	}
	result.Generator = generator
	if _, ok := generator.(*template.Generator); !ok {
		result.Fallback = template.New()
	}

	return result
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(
	ctx context.Context, settings domain.EmbeddingSettings, dimension int, deps Deps,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings, dimension, deps)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'campaign-rag config show' to check the [embedding] section",
			domain.ErrEmbeddingUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w)",
			domain.ErrEmbeddingUnavailable, settings.Provider, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings domain.EmbeddingSettings, dimension int, deps Deps) error {
	svc, err := CreateAndValidateEmbeddingService(ctx, settings, dimension, deps)
	if err != nil {
		return err
	}
	return svc.Close()
}

// CreateEmbeddingService creates the embedding service named by settings.
// Vectors are produced at the index dimension.
func CreateEmbeddingService(
	settings domain.EmbeddingSettings, dimension int, deps Deps,
) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderHashing, "":
		return hashing.NewEmbeddingService(dimension), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Timeout:           settings.Timeout(),
			Dimensions:        dimension,
			BatchSize:         settings.BatchSize,
			RequestsPerSecond: settings.RequestsPerSecond,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            deps.getenv(settings.APIKeyEnv),
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Timeout:           settings.Timeout(),
			Dimensions:        dimension,
			BatchSize:         settings.BatchSize,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateAnswerGenerator creates the answer generator named by settings.
func CreateAnswerGenerator(settings domain.LLMSettings, deps Deps) (driven.AnswerGenerator, error) {
	switch settings.Provider {
	case domain.AIProviderTemplate, "":
		return template.New(), nil

	case domain.AIProviderOpenAI:
		g, err := openaillm.NewGenerator(openaillm.Config{
			APIKey:      deps.getenv(settings.APIKeyEnv),
			BaseURL:     settings.BaseURL,
			Model:       settings.Model,
			Timeout:     settings.Timeout(),
			MaxTokens:   settings.MaxTokens,
			Temperature: settings.Temperature,
			Normaliser:  deps.Normaliser,
			Prompts:     deps.Prompts,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set %s to enable LLM answers)", err, settings.APIKeyEnv)
		}
		return g, nil

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", domain.ErrLLMUnavailable, settings.Provider)
	}
}

// ValidateLLMConfig checks that an answer generator can be created.
// Generators have no lightweight ping, so the check stops at construction.
func ValidateLLMConfig(settings domain.LLMSettings, deps Deps) error {
	_, err := CreateAnswerGenerator(settings, deps)
	return err
}
