package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

func TestIndexRunStore_RecordAndList(t *testing.T) {
	store := NewIndexRunStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, domain.IndexRun{ID: "old", StartedAt: base}))
	require.NoError(t, store.Record(ctx, domain.IndexRun{ID: "new", StartedAt: base.Add(time.Minute)}))
	require.NoError(t, store.Record(ctx, domain.IndexRun{ID: "mid", StartedAt: base.Add(time.Second)}))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
	assert.Equal(t, "old", runs[2].ID)

	runs, err = store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestIndexRunStore_EqualStartTimes(t *testing.T) {
	store := NewIndexRunStore()
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, domain.IndexRun{ID: "first", StartedAt: at}))
	require.NoError(t, store.Record(ctx, domain.IndexRun{ID: "second", StartedAt: at}))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "second", runs[0].ID)
}

func TestIndexRunStore_RecordUpdates(t *testing.T) {
	store := NewIndexRunStore()
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, domain.IndexRun{ID: "r", Status: domain.IndexRunFailed}))
	require.NoError(t, store.Record(ctx, domain.IndexRun{ID: "r", Status: domain.IndexRunCompleted}))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.IndexRunCompleted, runs[0].Status)
}

func TestIndexRunStore_RejectsMissingID(t *testing.T) {
	err := NewIndexRunStore().Record(context.Background(), domain.IndexRun{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
