package jobengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
	"github.com/ternarybob/sitecorpus/internal/services/hasher"
	"github.com/ternarybob/sitecorpus/internal/services/urlscope"
)

const maxDisplayNameLength = 512

// resolveSeed accepts either a full URL or a bare domain and returns a
// normalized seed URL plus its base domain.
func resolveSeed(seed, displayName string) (normalizedSeed, baseDomain string, err error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return "", "", fmt.Errorf("seed url is required")
	}
	if len(displayName) > maxDisplayNameLength {
		return "", "", fmt.Errorf("display name exceeds %d characters", maxDisplayNameLength)
	}

	if !strings.Contains(seed, "://") {
		seed = "https://" + seed
	}

	normalized, err := urlscope.Normalize(seed)
	if err != nil {
		return "", "", fmt.Errorf("invalid seed url: %w", err)
	}
	domain, err := urlscope.ExtractDomain(normalized)
	if err != nil {
		return "", "", fmt.Errorf("invalid seed url: %w", err)
	}
	return normalized, urlscope.ExtractBaseDomain(domain), nil
}

// buildPageFromScrape constructs a ready_for_indexing page row from a
// successful scrape result. Returns ok=false when the scrape should be
// discarded (no URL, or no content to index).
func buildPageFromScrape(websiteID string, data interfaces.ScrapeData, lineageJobID string, isSync bool) (*models.Page, bool) {
	if data.URL == "" || strings.TrimSpace(data.Markdown) == "" {
		return nil, false
	}

	normalizedURL, err := urlscope.Normalize(data.URL)
	if err != nil {
		return nil, false
	}

	hash := hasher.Hash(data.Markdown)
	page := &models.Page{
		WebsiteID:      websiteID,
		URL:            normalizedURL,
		Path:           pathOf(normalizedURL),
		Title:          data.Metadata.Title,
		Status:         models.PageStatusReadyForIndexing,
		ContentHash:    hash,
		Markdown:       data.Markdown,
		LastHTTPStatus: data.Metadata.StatusCode,
		ScrapeCount:    1,
		Metadata: models.PageMetadata{
			Title:       data.Metadata.Title,
			Description: data.Metadata.Description,
			OGImage:     data.Metadata.OGImage,
			Language:    data.Metadata.Language,
			Extra:       data.Metadata.Extra,
		},
	}
	if isSync {
		page.CreatedBySyncID = lineageJobID
	} else {
		page.CreatedByIngestionID = lineageJobID
	}
	return page, true
}

func pathOf(normalizedURL string) string {
	idx := strings.Index(normalizedURL, "://")
	if idx < 0 {
		return ""
	}
	rest := normalizedURL[idx+3:]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "/"
	}
	return rest[slash:]
}

// reconstructIngestResult rebuilds an IngestResult from a completed job's
// persisted state, used when ingestion is requested again for an already
// fully-ingested website.
func reconstructIngestResult(ctx context.Context, storage interfaces.CorpusStorage, website *models.Website, job *models.ProcessJob) (*IngestResult, error) {
	pages, err := storage.ListPagesByWebsite(ctx, website.ID, interfaces.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("reconstruct ingestion result: %w", err)
	}

	written := 0
	for _, p := range pages {
		if p.CreatedByIngestionID == job.ID {
			written++
		}
	}

	return &IngestResult{
		WebsiteID:       website.ID,
		BaseDomain:      website.BaseDomain,
		SearchStoreID:   website.SearchStoreID,
		PagesDiscovered: job.URLsDiscovered,
		PagesWritten:    written,
		Errors:          job.Errors,
		IngestionJobID:  job.ID,
	}, nil
}
