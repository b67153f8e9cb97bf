package jobengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
	"github.com/ternarybob/sitecorpus/internal/services/jobengine/jobenginetest"
)

func ingestAndIndexOnePage(t *testing.T, engine *Engine, crawler *jobenginetest.FakeCrawler, url, markdown string) *IngestResult {
	t.Helper()
	crawler.Links = []string{url}
	crawler.Pages[url] = markdown
	result, err := engine.Ingest(context.Background(), IngestInput{SeedURL: url})
	require.NoError(t, err)
	_, err = engine.Index(context.Background(), IndexInput{WebsiteID: result.WebsiteID, AutoCreateStore: true})
	require.NoError(t, err)
	return result
}

func TestSync_DetectsNewURLAndIncorporatesIt(t *testing.T) {
	engine, storage, crawler, _ := newTestEngine(t)
	ctx := context.Background()
	ingestResult := ingestAndIndexOnePage(t, engine, crawler, "https://example.com/", "# Home\ncontent")

	crawler.Links = []string{"https://example.com/", "https://example.com/new"}
	crawler.Pages["https://example.com/new"] = "# New\ncontent"

	syncResult, err := engine.Sync(ctx, ingestResult.WebsiteID)
	require.NoError(t, err)
	assert.Equal(t, 2, syncResult.URLsDiscovered)

	pages, err := storage.ListPagesByWebsite(ctx, ingestResult.WebsiteID, interfaces.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestSync_ContentChangeMarksReadyForReIndexingAndPreservesSearchFileID(t *testing.T) {
	engine, storage, crawler, _ := newTestEngine(t)
	ctx := context.Background()
	ingestResult := ingestAndIndexOnePage(t, engine, crawler, "https://example.com/", "# Home\noriginal")

	pages, err := storage.ListPagesByWebsite(ctx, ingestResult.WebsiteID, interfaces.ListOptions{})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	originalFileID := pages[0].SearchFileID
	require.NotEmpty(t, originalFileID)

	crawler.Links = []string{"https://example.com/"}
	crawler.Pages["https://example.com/"] = "# Home\nchanged by one character"

	_, err = engine.Sync(ctx, ingestResult.WebsiteID)
	require.NoError(t, err)

	updated, err := storage.GetPage(ctx, pages[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.PageStatusReadyForReIndexing, updated.Status)
	assert.Equal(t, originalFileID, updated.SearchFileID)
	assert.NotEqual(t, pages[0].ContentHash, updated.ContentHash)
}

func TestSync_MissingURLAcrossThreeRunsCrossesDeletionThreshold(t *testing.T) {
	engine, storage, crawler, _ := newTestEngine(t)
	ctx := context.Background()
	ingestResult := ingestAndIndexOnePage(t, engine, crawler, "https://example.com/", "# Home\ncontent")

	pages, err := storage.ListPagesByWebsite(ctx, ingestResult.WebsiteID, interfaces.ListOptions{})
	require.NoError(t, err)
	pageID := pages[0].ID

	// the page disappears from the discovered set on every subsequent sync
	crawler.Links = []string{}

	for i := 0; i < 3; i++ {
		_, err := engine.Sync(ctx, ingestResult.WebsiteID)
		require.NoError(t, err)
	}

	final, err := storage.GetPage(ctx, pageID)
	require.NoError(t, err)
	assert.Equal(t, models.PageStatusReadyForDeletion, final.Status)
	assert.Equal(t, 3, final.MissingCount)
}

func TestSync_SelfHealsStuckPageWithExistingContent(t *testing.T) {
	engine, storage, crawler, _ := newTestEngine(t)
	ctx := context.Background()
	ingestResult := ingestAndIndexOnePage(t, engine, crawler, "https://example.com/", "# Home\ncontent")

	pages, err := storage.ListPagesByWebsite(ctx, ingestResult.WebsiteID, interfaces.ListOptions{})
	require.NoError(t, err)
	stuck := models.PageStatusError
	require.NoError(t, storage.UpdatePage(ctx, pages[0].ID, interfaces.PageStorePatch{Status: &stuck}))

	crawler.Links = []string{"https://example.com/"}

	_, err = engine.Sync(ctx, ingestResult.WebsiteID)
	require.NoError(t, err)

	healed, err := storage.GetPage(ctx, pages[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.PageStatusReadyForIndexing, healed.Status)
}
