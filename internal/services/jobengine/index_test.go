package jobengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
)

func TestIndex_UploadsReadyPagesAndMarksThemActive(t *testing.T) {
	engine, storage, crawler, _ := newTestEngine(t)
	ctx := context.Background()

	crawler.Links = []string{"https://example.com/"}
	crawler.Pages["https://example.com/"] = "# Home\ncontent"
	ingestResult, err := engine.Ingest(ctx, IngestInput{SeedURL: "https://example.com/"})
	require.NoError(t, err)

	indexResult, err := engine.Index(ctx, IndexInput{WebsiteID: ingestResult.WebsiteID, IngestionJobID: ingestResult.IngestionJobID, AutoCreateStore: true})
	require.NoError(t, err)
	assert.Equal(t, 1, indexResult.PagesIndexed)

	pages, err := storage.ListPagesByWebsite(ctx, ingestResult.WebsiteID, interfaces.ListOptions{})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, models.PageStatusActive, pages[0].Status)
	assert.NotEmpty(t, pages[0].SearchFileID)
}

func TestIndex_FailedUploadLeavesPageReadyForRetry(t *testing.T) {
	engine, storage, crawler, search := newTestEngine(t)
	ctx := context.Background()

	crawler.Links = []string{"https://example.com/"}
	crawler.Pages["https://example.com/"] = "# Home\ncontent"
	ingestResult, err := engine.Ingest(ctx, IngestInput{SeedURL: "https://example.com/"})
	require.NoError(t, err)

	search.FailDocumentName["https://example.com"] = true

	indexResult, err := engine.Index(ctx, IndexInput{WebsiteID: ingestResult.WebsiteID, AutoCreateStore: true})
	require.NoError(t, err)
	assert.Equal(t, 0, indexResult.PagesIndexed)

	pages, err := storage.ListPagesByWebsite(ctx, ingestResult.WebsiteID, interfaces.ListOptions{})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.NotEqual(t, models.PageStatusActive, pages[0].Status)
	assert.Empty(t, pages[0].SearchFileID)
}

func TestIndex_DeletionPassRemovesDocumentAndMarksPageDeleted(t *testing.T) {
	engine, storage, crawler, _ := newTestEngine(t)
	ctx := context.Background()

	crawler.Links = []string{"https://example.com/"}
	crawler.Pages["https://example.com/"] = "# Home\ncontent"
	ingestResult, err := engine.Ingest(ctx, IngestInput{SeedURL: "https://example.com/"})
	require.NoError(t, err)

	_, err = engine.Index(ctx, IndexInput{WebsiteID: ingestResult.WebsiteID, AutoCreateStore: true})
	require.NoError(t, err)

	pages, err := storage.ListPagesByWebsite(ctx, ingestResult.WebsiteID, interfaces.ListOptions{})
	require.NoError(t, err)
	require.Len(t, pages, 1)

	deletionStatus := models.PageStatusReadyForDeletion
	require.NoError(t, storage.UpdatePage(ctx, pages[0].ID, interfaces.PageStorePatch{Status: &deletionStatus}))

	_, err = engine.Index(ctx, IndexInput{WebsiteID: ingestResult.WebsiteID})
	require.NoError(t, err)

	final, err := storage.GetPage(ctx, pages[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.PageStatusDeleted, final.Status)
	assert.Empty(t, final.SearchFileID)
}
