package badger

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/common"
	"github.com/ternarybob/sitecorpus/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	dir, err := os.MkdirTemp("", "sitecorpus-badger-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWebsiteStorage_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	store := NewWebsiteStorage(db, arbor.NewLogger())
	ctx := context.Background()

	website := &models.Website{ID: "web-1", BaseDomain: "example.com", SeedURL: "https://example.com/"}
	require.NoError(t, store.CreateWebsite(ctx, website))

	fetched, err := store.GetWebsite(ctx, "web-1")
	require.NoError(t, err)
	assert.Equal(t, "example.com", fetched.BaseDomain)
	assert.False(t, fetched.CreatedAt.IsZero())
}

func TestWebsiteStorage_GetWebsiteByBaseDomain(t *testing.T) {
	db := newTestDB(t)
	store := NewWebsiteStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateWebsite(ctx, &models.Website{ID: "web-1", BaseDomain: "example.com"}))

	found, err := store.GetWebsiteByBaseDomain(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "web-1", found.ID)

	_, err = store.GetWebsiteByBaseDomain(ctx, "nope.com")
	assert.Error(t, err)
}

func TestWebsiteStorage_SoftDeleteExcludesFromList(t *testing.T) {
	db := newTestDB(t)
	store := NewWebsiteStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateWebsite(ctx, &models.Website{ID: "web-1", BaseDomain: "a.com"}))
	require.NoError(t, store.CreateWebsite(ctx, &models.Website{ID: "web-2", BaseDomain: "b.com"}))

	require.NoError(t, store.SoftDeleteWebsite(ctx, "web-1"))

	list, err := store.ListWebsites(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "web-2", list[0].ID)

	deleted, err := store.GetWebsite(ctx, "web-1")
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
}

func TestWebsiteStorage_UpdateWebsite(t *testing.T) {
	db := newTestDB(t)
	store := NewWebsiteStorage(db, arbor.NewLogger())
	ctx := context.Background()

	website := &models.Website{ID: "web-1", BaseDomain: "example.com"}
	require.NoError(t, store.CreateWebsite(ctx, website))

	website.SearchStoreID = "store-123"
	require.NoError(t, store.UpdateWebsite(ctx, website))

	fetched, err := store.GetWebsite(ctx, "web-1")
	require.NoError(t, err)
	assert.Equal(t, "store-123", fetched.SearchStoreID)
}
