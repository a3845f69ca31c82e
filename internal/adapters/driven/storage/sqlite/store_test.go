package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(dir, "metadata.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "path", "to", "db")
	store, err := NewStore(nested)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nested)
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	for _, table := range []string{"campaigns", "index_runs"} {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.CampaignStore().Save(context.Background(), []domain.Campaign{{ID: "1"}}))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)

	n, err := store.CampaignStore().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Close(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
}

// ==================== Campaign Store Tests ====================

func TestCampaignStore_SaveAndGet(t *testing.T) {
	cs := setupTestStore(t).CampaignStore()
	ctx := context.Background()

	campaign := domain.Campaign{
		ID:          "2",
		Title:       "Auto King",
		Description: "Special car loan campaign",
		Terms:       "Valid for new customers",
		Benefits:    "Low interest",
		CleanedText: "Auto King offers low interest car loans.",
		URL:         "https://example.com/campaigns/auto-king",
	}
	require.NoError(t, cs.Save(ctx, []domain.Campaign{campaign}))

	got, err := cs.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, campaign, *got)
}

func TestCampaignStore_Save_Upserts(t *testing.T) {
	cs := setupTestStore(t).CampaignStore()
	ctx := context.Background()

	require.NoError(t, cs.Save(ctx, []domain.Campaign{{ID: "1", Title: "Old"}}))
	require.NoError(t, cs.Save(ctx, []domain.Campaign{{ID: "1", Title: "New"}}))

	got, err := cs.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)

	n, err := cs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCampaignStore_Save_RollsBackOnMissingID(t *testing.T) {
	cs := setupTestStore(t).CampaignStore()
	ctx := context.Background()

	err := cs.Save(ctx, []domain.Campaign{{ID: "1"}, {Title: "No ID"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	n, err := cs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCampaignStore_Get_NotFound(t *testing.T) {
	cs := setupTestStore(t).CampaignStore()

	_, err := cs.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCampaignStore_ListAndDelete(t *testing.T) {
	cs := setupTestStore(t).CampaignStore()
	ctx := context.Background()

	list, err := cs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, cs.Save(ctx, []domain.Campaign{{ID: "b"}, {ID: "a"}, {ID: "c"}}))
	require.NoError(t, cs.Delete(ctx, "b"))

	list, err = cs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[1].ID)
}

// ==================== Index Run Store Tests ====================

func TestIndexRunStore_RecordAndList(t *testing.T) {
	rs := setupTestStore(t).IndexRunStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	runs := []domain.IndexRun{
		{ID: "a", Status: domain.IndexRunCompleted, StartedAt: base, CompletedAt: base.Add(time.Second)},
		{ID: "b", Status: domain.IndexRunSkipped, StartedAt: base.Add(time.Hour)},
		{ID: "c", Status: domain.IndexRunFailed, Error: "boom", StartedAt: base.Add(time.Minute)},
	}
	for _, r := range runs {
		r.Strategy = domain.ChunkingCampaign
		r.VersionName = "index_20250301_090000_000000000"
		require.NoError(t, rs.Record(ctx, r))
	}

	got, err := rs.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "a", got[2].ID)

	assert.Equal(t, domain.IndexRunFailed, got[1].Status)
	assert.Equal(t, "boom", got[1].Error)
	assert.Equal(t, domain.ChunkingCampaign, got[2].Strategy)
	assert.True(t, got[2].StartedAt.Equal(base))
	assert.True(t, got[2].CompletedAt.Equal(base.Add(time.Second)))
	assert.True(t, got[0].CompletedAt.IsZero())

	limited, err := rs.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "b", limited[0].ID)
}

func TestIndexRunStore_RecordUpdates(t *testing.T) {
	rs := setupTestStore(t).IndexRunStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, rs.Record(ctx, domain.IndexRun{ID: "r", Status: domain.IndexRunFailed, StartedAt: now}))
	require.NoError(t, rs.Record(ctx, domain.IndexRun{ID: "r", Status: domain.IndexRunCompleted, StartedAt: now}))

	got, err := rs.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.IndexRunCompleted, got[0].Status)
}

func TestIndexRunStore_RejectsMissingID(t *testing.T) {
	rs := setupTestStore(t).IndexRunStore()

	err := rs.Record(context.Background(), domain.IndexRun{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
