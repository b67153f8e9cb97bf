package jobengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
)

func TestIngest_FreshWebsiteDiscoversAndPersistsPages(t *testing.T) {
	engine, storage, crawler, _ := newTestEngine(t)
	ctx := context.Background()

	crawler.Links = []string{"https://example.com/", "https://example.com/about"}
	crawler.Pages["https://example.com/"] = "# Home\ncontent"
	crawler.Pages["https://example.com/about"] = "# About\ncontent"

	result, err := engine.Ingest(ctx, IngestInput{SeedURL: "https://example.com/", DisplayName: "Example"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.PagesDiscovered)
	assert.Equal(t, 2, result.PagesWritten)
	assert.Empty(t, result.Errors)

	pages, err := storage.ListPagesByWebsite(ctx, result.WebsiteID, interfaces.ListOptions{})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	for _, p := range pages {
		assert.NotEmpty(t, p.ContentHash)
		assert.Equal(t, result.IngestionJobID, p.CreatedByIngestionID)
	}
}

func TestIngest_RepeatedCallOnCompletedWebsiteReconstructsResult(t *testing.T) {
	engine, _, crawler, _ := newTestEngine(t)
	ctx := context.Background()

	crawler.Links = []string{"https://example.com/"}
	crawler.Pages["https://example.com/"] = "# Home\ncontent"

	first, err := engine.Ingest(ctx, IngestInput{SeedURL: "https://example.com/"})
	require.NoError(t, err)

	second, err := engine.Ingest(ctx, IngestInput{SeedURL: "https://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, first.WebsiteID, second.WebsiteID)
	assert.Equal(t, first.IngestionJobID, second.IngestionJobID)
	assert.Equal(t, 1, second.PagesWritten)
}

func TestIngest_FailsWhenNoURLsInBaseDomain(t *testing.T) {
	engine, _, crawler, _ := newTestEngine(t)
	ctx := context.Background()

	crawler.Links = []string{"https://other-domain.com/"}

	_, err := engine.Ingest(ctx, IngestInput{SeedURL: "https://example.com/"})
	assert.Error(t, err)
}

func TestIngest_DiscoversLinksFromHTMLFixtures(t *testing.T) {
	engine, storage, crawler, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, crawler.AddHTMLPage("https://example.com/",
		`<body><h1>Home</h1><a href="https://example.com/about">About</a></body>`))
	require.NoError(t, crawler.AddHTMLPage("https://example.com/about",
		`<body><h1>About</h1><p>We build things.</p></body>`))

	result, err := engine.Ingest(ctx, IngestInput{SeedURL: "https://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.PagesWritten)

	pages, err := storage.ListPagesByWebsite(ctx, result.WebsiteID, interfaces.ListOptions{})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	for _, p := range pages {
		assert.Contains(t, p.Markdown, "#")
	}
}

func TestIngest_PerURLScrapeFailureIsRecordedNotFatal(t *testing.T) {
	engine, storage, crawler, _ := newTestEngine(t)
	ctx := context.Background()

	crawler.Links = []string{"https://example.com/", "https://example.com/broken"}
	crawler.Pages["https://example.com/"] = "# Home\ncontent"
	crawler.Missing["https://example.com/broken"] = true

	result, err := engine.Ingest(ctx, IngestInput{SeedURL: "https://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.PagesWritten)
	assert.Len(t, result.Errors, 1)

	pages, err := storage.ListPagesByWebsite(ctx, result.WebsiteID, interfaces.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}
