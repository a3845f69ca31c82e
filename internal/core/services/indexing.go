package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driving"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

// Ensure IndexingService implements the interface.
var _ driving.IndexingService = (*IndexingService)(nil)

// IndexingService chunks, embeds and persists campaigns as new index versions.
type IndexingService struct {
	chunker  driven.Chunker
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	runs     driven.IndexRunStore

	keepVersions int
	now          func() time.Time
}

// IndexingOption configures the indexing service.
type IndexingOption func(*IndexingService)

// WithRunStore records every run in store.
func WithRunStore(store driven.IndexRunStore) IndexingOption {
	return func(s *IndexingService) {
		s.runs = store
	}
}

// WithKeepVersions prunes all but the newest keep versions after a
// successful run. Zero keeps everything.
func WithKeepVersions(keep int) IndexingOption {
	return func(s *IndexingService) {
		s.keepVersions = keep
	}
}

// NewIndexingService creates a new indexing service.
func NewIndexingService(
	chunker driven.Chunker,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	opts ...IndexingOption,
) *IndexingService {
	s := &IndexingService{
		chunker:  chunker,
		index:    index,
		embedder: embedder,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IndexCampaigns builds a new index version from campaigns and makes it
// current. The previously published version serves queries until the final
// swap, and stays current on any error.
func (s *IndexingService) IndexCampaigns(
	ctx context.Context, campaigns []domain.Campaign, strategy domain.ChunkingStrategy,
) (*domain.IndexRun, error) {
	logger.Section("Indexing")

	if strategy == "" {
		strategy = domain.ChunkingCampaign
	}
	if !strategy.IsValid() {
		return nil, fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, strategy)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	run := &domain.IndexRun{
		ID:            uuid.New().String(),
		Strategy:      strategy,
		CampaignCount: len(campaigns),
		StartedAt:     s.now(),
	}

	err := s.build(ctx, run, campaigns, strategy)
	run.CompletedAt = s.now()
	switch {
	case err == nil:
		run.Status = domain.IndexRunCompleted
		logger.Info("Indexed %d chunks from %d campaigns as %s in %s",
			run.ChunkCount, run.CampaignCount, run.VersionName, run.Duration())
	case errors.Is(err, domain.ErrEmptyCorpus):
		run.Status = domain.IndexRunSkipped
		logger.Warn("No chunks produced from %d campaigns, keeping the current index", run.CampaignCount)
	default:
		run.Status = domain.IndexRunFailed
		run.Error = err.Error()
		logger.Error("Indexing failed: %v", err)
	}
	s.record(ctx, *run)

	if err != nil {
		return run, err
	}

	if s.keepVersions > 0 {
		removed, pruneErr := s.index.Prune(ctx, s.keepVersions)
		if pruneErr != nil {
			logger.Warn("Failed to prune old index versions: %v", pruneErr)
		} else if len(removed) > 0 {
			logger.Info("Pruned %d old index versions", len(removed))
		}
	}
	return run, nil
}

func (s *IndexingService) build(
	ctx context.Context, run *domain.IndexRun, campaigns []domain.Campaign, strategy domain.ChunkingStrategy,
) error {
	builder, err := s.index.CreateNewIndex()
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer builder.Discard()
	run.VersionName = builder.Name()
	logger.Debug("Building version %s", builder.Name())

	var chunks []domain.Chunk
	for _, c := range campaigns {
		chunks = append(chunks, s.chunker.ChunkWith(c, strategy)...)
	}
	run.ChunkCount = len(chunks)
	logger.Debug("Chunked %d campaigns into %d chunks with %s", len(campaigns), len(chunks), s.chunker.Name())
	if len(chunks) == 0 {
		return domain.ErrEmptyCorpus
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	logger.Debug("Embedding %d chunks with %s", len(texts), s.embedder.ModelName())
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	if err := builder.AddVectors(vectors, chunks); err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}
	snapshot, err := builder.Save(ctx)
	if err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	if err := s.index.Activate(snapshot); err != nil {
		return fmt.Errorf("activate index: %w", err)
	}
	return nil
}

func (s *IndexingService) record(ctx context.Context, run domain.IndexRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Record(ctx, run); err != nil {
		logger.Warn("Failed to record index run %s: %v", run.ID, err)
	}
}

// Runs returns recent indexing runs, newest first.
func (s *IndexingService) Runs(ctx context.Context, limit int) ([]domain.IndexRun, error) {
	if s.runs == nil {
		return []domain.IndexRun{}, nil
	}
	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list index runs: %w", err)
	}
	return runs, nil
}
