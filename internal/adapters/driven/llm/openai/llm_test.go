package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/llm/template"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/normalisers/query"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens int `json:"max_tokens"`
}

func fakeChat(t *testing.T, answer string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": answer},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

var passages = []domain.SearchResult{{
	Chunk: domain.Chunk{CampaignID: "2", Title: "Auto King", Text: "Auto King\n\nLow interest car loans"},
	Score: 0.95,
}}

func TestNewGenerator(t *testing.T) {
	_, err := NewGenerator(Config{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	g, err := NewGenerator(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, g.ModelName())
	assert.Equal(t, DefaultMaxTokens, g.maxTokens)
}

func TestGenerate(t *testing.T) {
	var got chatRequest
	srv := fakeChat(t, "  Yes, Auto King offers car loans.  ", &got)

	g, err := NewGenerator(Config{APIKey: "k", BaseURL: srv.URL + "/v1", Normaliser: query.New()})
	require.NoError(t, err)

	answer, err := g.Generate(context.Background(), "autoking kampanyası", passages)
	require.NoError(t, err)
	assert.Equal(t, "Yes, Auto King offers car loans.", answer)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "[1] Campaign: Auto King")
	assert.Contains(t, got.Messages[1].Content, `"auto king campaign"`)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
}

func TestGenerate_NoPassages(t *testing.T) {
	g, err := NewGenerator(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	answer, err := g.Generate(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, template.NoInformation, answer)
}

func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	g, err := NewGenerator(Config{APIKey: "k", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "q", passages)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "rate limited")
}

type stubPrompts struct {
	prompt string
	err    error
}

func (s stubPrompts) Load(string) (string, error) { return s.prompt, s.err }
func (s stubPrompts) Reload()                     {}

func TestGenerate_SystemPrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompts driven.PromptStore
		want    string
	}{
		{"default", nil, SystemPrompt},
		{"custom", stubPrompts{prompt: "Be brief."}, "Be brief."},
		{"load error", stubPrompts{err: errors.New("unreadable")}, SystemPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got chatRequest
			srv := fakeChat(t, "ok", &got)

			g, err := NewGenerator(Config{APIKey: "k", BaseURL: srv.URL + "/v1", Prompts: tt.prompts})
			require.NoError(t, err)

			_, err = g.Generate(context.Background(), "q", passages)
			require.NoError(t, err)
			require.NotEmpty(t, got.Messages)
			assert.Equal(t, tt.want, got.Messages[0].Content)
		})
	}
}
