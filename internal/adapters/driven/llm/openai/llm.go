// Package openai provides an answer generator using the OpenAI chat API
// or any compatible endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/llm/template"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.AnswerGenerator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultLLMModel    = "gpt-4.1-mini"
	DefaultLLMTimeout  = 120 * time.Second
	DefaultMaxTokens   = 800
	DefaultTemperature = 0.7
)

// SystemPrompt is the default system prompt for answer generation.
const SystemPrompt = `You are a customer service expert answering questions about campaigns and services.

Answer the user's question in detail, clearly and professionally, using only the context provided.

Rules:
1. Use only the information in the context. Never add facts from elsewhere.
2. Never guess or invent details that are not in the context.
3. If the context holds no campaign relevant to the question, answer only: "Sorry, I have no information about this campaign."
4. Mention campaign benefits, conditions and details when they are present.
5. Spellings of a term can differ (case, hyphens, underscores, joined or split words, Turkish characters). "Otoking", "autoking", "auto-king" and "Auto King" may name the same campaign; match them.
6. Answer directly. Do not repeat the question.`

// Config holds configuration for the OpenAI generator.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL. Empty uses the OpenAI default.
	BaseURL string

	// Model is the chat model to use (default: gpt-4.1-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// MaxTokens caps the answer length (default: 800).
	MaxTokens int

	// Temperature is the sampling temperature (default: 0.7).
	Temperature float32

	// Normaliser adds a spelling note to the prompt when the query was
	// rewritten. Optional.
	Normaliser driven.QueryNormaliser

	// Prompts supplies a customised system prompt. Optional; SystemPrompt
	// is used when nil or when loading fails.
	Prompts driven.PromptStore
}

// Generator composes answers with a chat completion.
type Generator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	normaliser  driven.QueryNormaliser
	prompts     driven.PromptStore
}

// NewGenerator creates a new OpenAI answer generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrLLMUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		normaliser:  cfg.Normaliser,
		prompts:     cfg.Prompts,
	}, nil
}

// Generate answers question from the ranked passages.
func (g *Generator) Generate(ctx context.Context, question string, passages []domain.SearchResult) (string, error) {
	if len(passages) == 0 {
		return template.NoInformation, nil
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: g.userPrompt(question, passages)},
		},
		MaxTokens:        g.maxTokens,
		Temperature:      g.temperature,
		TopP:             0.9,
		FrequencyPenalty: 0.3,
		PresencePenalty:  0.3,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: openai status %d: %s",
				domain.ErrLLMUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: openai: %w", domain.ErrLLMUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", domain.ErrLLMUnavailable)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ModelName returns the name of the model being used.
func (g *Generator) ModelName() string {
	return g.model
}

func (g *Generator) systemPrompt() string {
	if g.prompts == nil {
		return SystemPrompt
	}
	prompt, err := g.prompts.Load(driven.PromptAnswerSystem)
	if err != nil || prompt == "" {
		return SystemPrompt
	}
	return prompt
}

func (g *Generator) userPrompt(question string, passages []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("Answer the user's question using the context below.\n\nCONTEXT:\n\n")
	b.WriteString(template.BuildContext(passages))
	b.WriteString("\n\nQUESTION:\n\n")
	b.WriteString(question)

	if g.normaliser != nil {
		processed := g.normaliser.Preprocess(question)
		if !strings.EqualFold(processed, strings.TrimSpace(question)) {
			fmt.Fprintf(&b, "\n\nNOTE: %q means the same as %q. If the context has a campaign "+
				"spelled like %q, start the answer with \"Yes, I have information about the %s campaign:\".",
				question, processed, processed, processed)
		}
	}

	b.WriteString("\n\nANSWER:")
	return b.String()
}
