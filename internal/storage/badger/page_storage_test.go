package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
)

func TestPageStorage_UpsertPageDedupesByWebsiteAndURL(t *testing.T) {
	db := newTestDB(t)
	store := NewPageStorage(db, arbor.NewLogger())
	ctx := context.Background()

	p1 := &models.Page{ID: "page-1", WebsiteID: "web-1", URL: "https://example.com/a", Markdown: "one", ContentHash: "h1"}
	require.NoError(t, store.UpsertPage(ctx, p1))

	p2 := &models.Page{ID: "page-2", WebsiteID: "web-1", URL: "https://example.com/a", Markdown: "two", ContentHash: "h2"}
	require.NoError(t, store.UpsertPage(ctx, p2))

	all, err := store.ListPagesByWebsite(ctx, "web-1", interfaces.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "page-1", all[0].ID)
	assert.Equal(t, "two", all[0].Markdown)
}

func TestPageStorage_GetPagesReadyForIndexingFiltersByMarkdownAndFileID(t *testing.T) {
	db := newTestDB(t)
	store := NewPageStorage(db, arbor.NewLogger())
	ctx := context.Background()

	ready := &models.Page{ID: "p1", WebsiteID: "web-1", URL: "https://x.com/1", Status: models.PageStatusReadyForIndexing, Markdown: "content", ContentHash: "h"}
	noMarkdown := &models.Page{ID: "p2", WebsiteID: "web-1", URL: "https://x.com/2", Status: models.PageStatusReadyForIndexing}
	alreadyUploaded := &models.Page{ID: "p3", WebsiteID: "web-1", URL: "https://x.com/3", Status: models.PageStatusReadyForIndexing, Markdown: "content", ContentHash: "h", SearchFileID: "file-1"}

	require.NoError(t, store.CreatePages(ctx, []*models.Page{ready, noMarkdown, alreadyUploaded}))

	result, err := store.GetPagesReadyForIndexing(ctx, "web-1", "", 0)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "p1", result[0].ID)
}

func TestPageStorage_GetPagesReadyForDeletionAllowsExistingSearchFileID(t *testing.T) {
	db := newTestDB(t)
	store := NewPageStorage(db, arbor.NewLogger())
	ctx := context.Background()

	page := &models.Page{ID: "p1", WebsiteID: "web-1", URL: "https://x.com/1", Status: models.PageStatusReadyForDeletion, Markdown: "content", SearchFileID: "file-1"}
	require.NoError(t, store.CreatePage(ctx, page))

	result, err := store.GetPagesReadyForDeletion(ctx, "web-1", "", 0)
	require.NoError(t, err)
	require.Len(t, result, 1)
}

func TestPageStorage_IncrementMissingCountAccumulatesAcrossCalls(t *testing.T) {
	db := newTestDB(t)
	store := NewPageStorage(db, arbor.NewLogger())
	ctx := context.Background()

	page := &models.Page{ID: "p1", WebsiteID: "web-1", URL: "https://x.com/1", Markdown: "content"}
	require.NoError(t, store.CreatePage(ctx, page))

	require.NoError(t, store.IncrementMissingCount(ctx, "web-1", []string{"https://x.com/1"}))
	require.NoError(t, store.IncrementMissingCount(ctx, "web-1", []string{"https://x.com/1"}))
	require.NoError(t, store.IncrementMissingCount(ctx, "web-1", []string{"https://x.com/1"}))

	fetched, err := store.GetPage(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, fetched.MissingCount)
}

func TestPageStorage_UpdatePagesLastSeenResetsMissingCount(t *testing.T) {
	db := newTestDB(t)
	store := NewPageStorage(db, arbor.NewLogger())
	ctx := context.Background()

	page := &models.Page{ID: "p1", WebsiteID: "web-1", URL: "https://x.com/1", Markdown: "content", MissingCount: 2}
	require.NoError(t, store.CreatePage(ctx, page))

	now := time.Now().UTC()
	require.NoError(t, store.UpdatePagesLastSeen(ctx, "web-1", []string{"https://x.com/1"}, now))

	fetched, err := store.GetPage(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, fetched.MissingCount)
	assert.WithinDuration(t, now, fetched.LastSeen, time.Second)
}

func TestPageStorage_GetPagesPastDeletionThreshold(t *testing.T) {
	db := newTestDB(t)
	store := NewPageStorage(db, arbor.NewLogger())
	ctx := context.Background()

	under := &models.Page{ID: "p1", WebsiteID: "web-1", URL: "https://x.com/1", MissingCount: 2}
	atThreshold := &models.Page{ID: "p2", WebsiteID: "web-1", URL: "https://x.com/2", MissingCount: 3}
	already := &models.Page{ID: "p3", WebsiteID: "web-1", URL: "https://x.com/3", MissingCount: 5, Status: models.PageStatusDeleted}
	require.NoError(t, store.CreatePages(ctx, []*models.Page{under, atThreshold, already}))

	result, err := store.GetPagesPastDeletionThreshold(ctx, "web-1", 3)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "p2", result[0].ID)
}

func TestPageStorage_UpdatePageAppliesSparsePatch(t *testing.T) {
	db := newTestDB(t)
	store := NewPageStorage(db, arbor.NewLogger())
	ctx := context.Background()

	page := &models.Page{ID: "p1", WebsiteID: "web-1", URL: "https://x.com/1", Title: "Original"}
	require.NoError(t, store.CreatePage(ctx, page))

	newStatus := models.PageStatusActive
	require.NoError(t, store.UpdatePage(ctx, "p1", interfaces.PageStorePatch{Status: &newStatus}))

	fetched, err := store.GetPage(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PageStatusActive, fetched.Status)
	assert.Equal(t, "Original", fetched.Title) // untouched fields survive a sparse patch
}

func TestPageStorage_MarkPagesDeletedClearsSearchFileID(t *testing.T) {
	db := newTestDB(t)
	store := NewPageStorage(db, arbor.NewLogger())
	ctx := context.Background()

	page := &models.Page{ID: "p1", WebsiteID: "web-1", URL: "https://x.com/1", SearchFileID: "file-1", Status: models.PageStatusReadyForDeletion}
	require.NoError(t, store.CreatePage(ctx, page))

	require.NoError(t, store.MarkPagesDeleted(ctx, []string{"p1"}))

	fetched, err := store.GetPage(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PageStatusDeleted, fetched.Status)
	assert.Empty(t, fetched.SearchFileID)
}
