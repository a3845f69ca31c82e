package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/config/file"
	openaillm "github.com/custodia-labs/campaign-rag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/campaign-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/core/services"
	"github.com/custodia-labs/campaign-rag/internal/logger"
	"github.com/custodia-labs/campaign-rag/internal/normalisers/query"
	"github.com/custodia-labs/campaign-rag/internal/postprocessors/chunker"
)

// bootstrap wires the adapters and services described by the configuration
// in configDir. An empty configDir uses ~/.campaign-rag.
func bootstrap(ctx context.Context, configDir string) (*cli.App, error) {
	cfg, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	settings := cfg.Settings()

	promptDir := ""
	if configDir != "" {
		promptDir = filepath.Join(configDir, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir, map[string]string{
		driven.PromptAnswerSystem: openaillm.SystemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	normaliser := query.New()
	deps := ai.Deps{Normaliser: normaliser, Prompts: prompts}
	aiResult := ai.Init(ctx, settings, deps)

	index, err := vectorindex.New(settings.Index.Dir, settings.Index.Dimension)
	if err != nil {
		aiResult.Close()
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	if err := index.LoadLatestIndex(ctx); err != nil {
		logger.Warn("No index version loaded: %v", err)
	}

	dataDir := settings.Storage.DataDir
	if dataDir == "" && configDir != "" {
		dataDir = filepath.Join(configDir, "data")
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		aiResult.Close()
		return nil, fmt.Errorf("open metadata store: %w", err)
	}

	proc := chunker.New(
		chunker.WithChunkSize(settings.Chunker.ChunkSize),
		chunker.WithOverlap(settings.Chunker.Overlap),
	)

	search := services.NewSearchService(index, aiResult.EmbeddingService, normaliser, settings.Retrieval, settings.Scoring)

	return &cli.App{
		Config:    cfg,
		Validator: ai.NewConfigValidator(deps),
		Campaigns: store.CampaignStore(),
		Index:     index,
		Search:    search,
		Query:     services.NewQueryService(search, aiResult.Generator, aiResult.Fallback),
		Indexing: services.NewIndexingService(proc, index, aiResult.EmbeddingService,
			services.WithRunStore(store.IndexRunStore()),
			services.WithKeepVersions(settings.Index.KeepVersions),
		),
		Versions:    services.NewVersionService(index),
		NewSource:   newSource,
		Warnings:    aiResult.Warnings,
		KeywordOnly: aiResult.FellBack || aiResult.EmbeddingService == nil,
		Close: func() {
			aiResult.Close()
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close metadata store: %v", err)
			}
		},
	}, nil
}

func newSource(path string, validate bool) driven.CampaignSource {
	if validate {
		return filesystem.New(path, filesystem.WithValidation())
	}
	return filesystem.New(path)
}
