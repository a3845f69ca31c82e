package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

func TestNewCampaignStore(t *testing.T) {
	store := NewCampaignStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.campaigns)
}

func TestCampaignStore_SaveAndGet(t *testing.T) {
	store := NewCampaignStore()
	ctx := context.Background()

	err := store.Save(ctx, []domain.Campaign{
		{ID: "2", Title: "Auto King", Description: "Special car loan campaign"},
		{ID: "1", Title: "Fuel Discount"},
	})
	require.NoError(t, err)

	c, err := store.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Auto King", c.Title)
	assert.Equal(t, "Special car loan campaign", c.Description)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCampaignStore_Save_Replaces(t *testing.T) {
	store := NewCampaignStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []domain.Campaign{{ID: "1", Title: "Old"}}))
	require.NoError(t, store.Save(ctx, []domain.Campaign{{ID: "1", Title: "New"}}))

	c, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "New", c.Title)
}

func TestCampaignStore_Save_RejectsMissingID(t *testing.T) {
	store := NewCampaignStore()
	ctx := context.Background()

	err := store.Save(ctx, []domain.Campaign{{ID: "1"}, {Title: "No ID"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCampaignStore_Get_NotFound(t *testing.T) {
	store := NewCampaignStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCampaignStore_List_OrderedByID(t *testing.T) {
	store := NewCampaignStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, []domain.Campaign{{ID: "c"}, {ID: "a"}, {ID: "b"}}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, "c", list[2].ID)
}

func TestCampaignStore_Delete(t *testing.T) {
	store := NewCampaignStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, []domain.Campaign{{ID: "1"}}))

	require.NoError(t, store.Delete(ctx, "1"))
	require.NoError(t, store.Delete(ctx, "missing"))

	_, err := store.Get(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCampaignStore_Concurrent(t *testing.T) {
	store := NewCampaignStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Save(ctx, []domain.Campaign{{ID: string(rune('a' + i))}})
			_, _ = store.List(ctx)
		}(i)
	}
	wg.Wait()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, count)
}
