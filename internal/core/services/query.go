package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driving"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService answers questions from retrieved campaign passages.
type QueryService struct {
	search    driving.SearchService
	generator driven.AnswerGenerator
	fallback  driven.AnswerGenerator
}

// NewQueryService creates a new query service. When generator fails, the
// answer is composed by fallback instead. Either may be nil, and with both
// nil the answer lists the retrieved campaigns only.
func NewQueryService(search driving.SearchService, generator, fallback driven.AnswerGenerator) *QueryService {
	return &QueryService{
		search:    search,
		generator: generator,
		fallback:  fallback,
	}
}

// Ask retrieves passages for question and composes an answer.
// The strategy defaults to hybrid.
func (s *QueryService) Ask(ctx context.Context, question string, opts domain.SearchOptions) (*domain.Answer, error) {
	logger.Section("Answer")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if opts.Strategy == "" {
		opts.Strategy = domain.SearchStrategyHybrid
	}

	resp, err := s.search.Search(ctx, question, opts)
	if err != nil {
		return nil, fmt.Errorf("retrieve passages: %w", err)
	}
	logger.Debug("Retrieved %d passages", resp.Count)

	text, err := s.generate(ctx, question, resp.Results)
	if err != nil {
		return nil, err
	}

	sources := make([]domain.AnswerSource, len(resp.Results))
	for i, r := range resp.Results {
		sources[i] = domain.AnswerSource{
			CampaignID: r.Chunk.CampaignID,
			Title:      r.Chunk.Title,
			Score:      r.Score,
		}
	}

	return &domain.Answer{
		Question:   question,
		Text:       text,
		Sources:    sources,
		NumSources: len(sources),
	}, nil
}

func (s *QueryService) generate(ctx context.Context, question string, passages []domain.SearchResult) (string, error) {
	if s.generator != nil {
		text, err := s.generator.Generate(ctx, question, passages)
		if err == nil {
			logger.Debug("Answer composed by %s", s.generator.ModelName())
			return text, nil
		}
		if s.fallback == nil || ctx.Err() != nil {
			return "", fmt.Errorf("generate answer: %w", err)
		}
		logger.Warn("Answer generation with %s failed, using %s: %v",
			s.generator.ModelName(), s.fallback.ModelName(), err)
	}
	if s.fallback != nil {
		text, err := s.fallback.Generate(ctx, question, passages)
		if err != nil {
			return "", fmt.Errorf("generate answer: %w", err)
		}
		return text, nil
	}
	return listCampaigns(passages), nil
}

// listCampaigns is the answer when no generator is configured.
func listCampaigns(passages []domain.SearchResult) string {
	if len(passages) == 0 {
		return "No matching campaigns were found."
	}
	var b strings.Builder
	b.WriteString("Matching campaigns:\n")
	seen := make(map[string]struct{}, len(passages))
	for _, p := range passages {
		if _, ok := seen[p.Chunk.CampaignID]; ok {
			continue
		}
		seen[p.Chunk.CampaignID] = struct{}{}
		fmt.Fprintf(&b, "- %s (%s)\n", p.Chunk.Title, p.Chunk.CampaignID)
	}
	return strings.TrimRight(b.String(), "\n")
}
