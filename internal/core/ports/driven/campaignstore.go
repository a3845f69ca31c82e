package driven

import (
	"context"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// CampaignStore persists campaign records between import and indexing.
type CampaignStore interface {
	// Save stores or replaces campaigns by ID.
	Save(ctx context.Context, campaigns []domain.Campaign) error

	// Get retrieves a campaign by ID.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns all campaigns ordered by ID.
	List(ctx context.Context) ([]domain.Campaign, error)

	// Delete removes a campaign.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored campaigns.
	Count(ctx context.Context) (int, error)
}

// CampaignSource reads campaigns from the upstream collection feed.
// The core does not validate or fetch campaigns itself.
type CampaignSource interface {
	// Load returns every campaign the feed currently holds.
	Load(ctx context.Context) ([]domain.Campaign, error)
}

// IndexRunStore records indexing run history.
type IndexRunStore interface {
	// Record stores or updates a run.
	Record(ctx context.Context, run domain.IndexRun) error

	// List returns the most recent runs, newest first. Zero limit returns all.
	List(ctx context.Context, limit int) ([]domain.IndexRun, error)
}
