package driving

import (
	"context"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// IndexingService builds and publishes new index versions.
type IndexingService interface {
	// IndexCampaigns chunks, embeds and persists campaigns as a new current
	// version. Returns domain.ErrEmptyCorpus (with a skipped run) when no
	// chunks result; the previous version then stays current.
	IndexCampaigns(
		ctx context.Context, campaigns []domain.Campaign, strategy domain.ChunkingStrategy,
	) (*domain.IndexRun, error)

	// Runs returns recent indexing runs, newest first.
	Runs(ctx context.Context, limit int) ([]domain.IndexRun, error)
}

// VersionService manages saved index versions.
type VersionService interface {
	// Versions lists saved versions, newest first.
	Versions(ctx context.Context) ([]domain.IndexVersion, error)

	// Use makes a named version current (rollback or roll forward).
	Use(ctx context.Context, name string) error

	// UseLatest makes the newest saved version current.
	UseLatest(ctx context.Context) error

	// Prune removes old versions beyond keep.
	Prune(ctx context.Context, keep int) ([]string, error)
}
