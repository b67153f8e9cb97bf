package jobengine

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/sitecorpus/internal/common"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
	"github.com/ternarybob/sitecorpus/internal/services/hasher"
)

// Sync reconciles a website's pages against what the crawler currently
// sees: it retries stuck pages, diffs new/existing/missing URLs, updates
// changed content, and marks persistently missing pages for deletion. It
// fires off an indexing pass at the end without waiting for it.
func (e *Engine) Sync(ctx context.Context, websiteID string) (*SyncResult, error) {
	if e.crawler == nil {
		return nil, fmt.Errorf("sync requires a crawler, none configured")
	}

	website, err := e.storage.GetWebsite(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("load website: %w", err)
	}
	if website.SearchStoreID == "" {
		return nil, fmt.Errorf("website %s has no search store; ingest before syncing", websiteID)
	}
	existingPages, err := e.storage.ListPagesByWebsite(ctx, websiteID, interfaces.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(existingPages) == 0 {
		return nil, fmt.Errorf("website %s has no pages; ingest before syncing", websiteID)
	}

	job := models.NewProcessJob(common.NewJobID(), websiteID, models.ProcessTypeSync)
	if err := e.storage.CreateProcessJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create sync job: %w", err)
	}

	e.selfHealStuckPages(ctx, job, website)

	result := e.categorizeAndReconcile(ctx, job, website, existingPages)

	deleted, err := e.storage.GetPagesPastDeletionThreshold(ctx, websiteID, e.config.DeletionMissingThreshold)
	if err != nil {
		job.AppendError("", fmt.Errorf("get pages past deletion threshold: %w", err))
	} else if len(deleted) > 0 {
		ids := make([]string, len(deleted))
		for i, p := range deleted {
			ids[i] = p.ID
		}
		status := models.PageStatusReadyForDeletion
		for _, id := range ids {
			e.storage.UpdatePage(ctx, id, interfaces.PageStorePatch{Status: &status})
		}
		result.URLsDeleted = len(ids)
	}

	result.URLsErrored = len(job.Errors)
	job.URLsDiscovered = result.URLsDiscovered
	job.URLsUpdated = result.URLsUpdated
	job.URLsDeleted = result.URLsDeleted
	job.URLsErrored = result.URLsErrored
	job.Complete()
	if err := e.storage.UpdateProcessJob(ctx, job); err != nil {
		return nil, fmt.Errorf("finalize sync job: %w", err)
	}

	website.LastFullCrawl = time.Now().UTC()
	if err := e.storage.UpdateWebsite(ctx, website); err != nil {
		return nil, fmt.Errorf("update website: %w", err)
	}

	result.SyncJobID = job.ID
	result.Errors = job.Errors

	// Fire and forget: indexing runs detached and must not block the caller
	// or the sync job's own completion on its outcome. SafeGo recovers a
	// panic in the detached indexing pass rather than crashing the process.
	common.SafeGo(e.logger, "post-sync-index", func() {
		indexCtx := context.Background()
		if _, err := e.Index(indexCtx, IndexInput{WebsiteID: websiteID, SyncJobID: job.ID, AutoCreateStore: true}); err != nil {
			e.logger.Warn().Err(err).Str("sync_job_id", job.ID).Msg("post-sync indexing failed")
		}
	})

	return result, nil
}

func (e *Engine) selfHealStuckPages(ctx context.Context, job *models.ProcessJob, website *models.Website) {
	stuck, err := e.storage.GetPagesByStatuses(ctx, website.ID, []models.PageStatus{
		models.PageStatusPending, models.PageStatusProcessing, models.PageStatusError,
	})
	if err != nil {
		job.AppendError("", fmt.Errorf("list stuck pages: %w", err))
		return
	}

	var haveContent []*models.Page
	var missingContent []*models.Page
	for _, p := range stuck {
		if p.Markdown != "" && p.ContentHash != "" {
			haveContent = append(haveContent, p)
		} else {
			missingContent = append(missingContent, p)
		}
	}

	for _, p := range haveContent {
		status := models.PageStatusReadyForIndexing
		if err := e.storage.UpdatePage(ctx, p.ID, interfaces.PageStorePatch{Status: &status}); err != nil {
			job.AppendError(p.URL, err)
		}
	}

	if len(missingContent) == 0 {
		return
	}

	urls := make([]string, len(missingContent))
	for i, p := range missingContent {
		urls[i] = p.URL
	}
	batchID, err := e.crawler.BatchStart(ctx, urls, interfaces.ScrapeOptions{Formats: []string{"markdown"}})
	if err != nil {
		job.AppendError("", fmt.Errorf("self-heal batch start: %w", err))
		return
	}
	job.FirecrawlBatchIDs = append(job.FirecrawlBatchIDs, batchID)

	status, err := e.crawler.BatchWait(ctx, batchID, interfaces.BatchWaitOptions{
		PollInterval: e.config.BatchPollInterval,
		MaxWait:      e.config.BatchMaxWait,
	})
	if err != nil {
		job.AppendError("", fmt.Errorf("self-heal batch wait: %w", err))
		return
	}

	for _, r := range status.Data {
		if !r.Success || r.Data.Markdown == "" {
			job.AppendError(r.Data.URL, fmt.Errorf("discarded during self-heal: %s", r.Error))
			continue
		}
		hash := hasher.Hash(r.Data.Markdown)
		page, ok := findPageByURL(missingContent, r.Data.URL)
		if !ok {
			continue
		}
		readyStatus := models.PageStatusReadyForIndexing
		markdown := r.Data.Markdown
		if err := e.storage.UpdatePage(ctx, page.ID, interfaces.PageStorePatch{
			Status:               &readyStatus,
			ContentHash:          &hash,
			Markdown:             &markdown,
			LastUpdatedBySyncID:  &job.ID,
			IncrementScrapeCount: true,
		}); err != nil {
			job.AppendError(r.Data.URL, err)
			continue
		}
	}
}

func findPageByURL(pages []*models.Page, url string) (*models.Page, bool) {
	for _, p := range pages {
		if p.URL == url {
			return p, true
		}
	}
	return nil, false
}

func (e *Engine) categorizeAndReconcile(ctx context.Context, job *models.ProcessJob, website *models.Website, existingPages []*models.Page) *SyncResult {
	result := &SyncResult{}

	mapResult, err := e.crawler.Map(ctx, website.SeedURL, interfaces.MapOptions{IncludeSubdomains: true})
	if err != nil || !mapResult.Success {
		job.AppendError("", fmt.Errorf("crawler map failed: %s", firstNonEmpty(mapResult.Error, errString(err))))
		return result
	}

	discoveredURLs := make([]string, 0, len(mapResult.Links))
	for _, link := range mapResult.Links {
		if normalized, err := normalizeQuiet(link.URL); err == nil {
			discoveredURLs = append(discoveredURLs, normalized)
		}
	}
	discoveredURLs = filterScoped(uniqueStrings(discoveredURLs), website.BaseDomain)
	result.URLsDiscovered = len(discoveredURLs)

	byURL := make(map[string]*models.Page, len(existingPages))
	for _, p := range existingPages {
		if p.Status != models.PageStatusDeleted {
			byURL[p.URL] = p
		}
	}

	var newURLs, activeURLs []string
	discoveredSet := make(map[string]struct{}, len(discoveredURLs))
	for _, u := range discoveredURLs {
		discoveredSet[u] = struct{}{}
		if existing, ok := byURL[u]; ok {
			if existing.Status == models.PageStatusActive {
				activeURLs = append(activeURLs, u)
			}
		} else {
			newURLs = append(newURLs, u)
		}
	}

	var missingURLs []string
	for url := range byURL {
		if _, ok := discoveredSet[url]; !ok {
			missingURLs = append(missingURLs, url)
		}
	}

	if len(newURLs) > 0 {
		result.URLsUpdated += e.ingestNewSyncURLs(ctx, job, website, newURLs)
	}
	if len(activeURLs) > 0 {
		result.URLsUpdated += e.reconcileExistingURLs(ctx, job, website, activeURLs)
		if err := e.storage.UpdatePagesLastSeen(ctx, website.ID, activeURLs, time.Now().UTC()); err != nil {
			job.AppendError("", fmt.Errorf("update last_seen: %w", err))
		}
	}
	if len(missingURLs) > 0 {
		if err := e.storage.IncrementMissingCount(ctx, website.ID, missingURLs); err != nil {
			job.AppendError("", fmt.Errorf("increment missing_count: %w", err))
		}
	}

	return result
}

func (e *Engine) ingestNewSyncURLs(ctx context.Context, job *models.ProcessJob, website *models.Website, urls []string) int {
	batchID, err := e.crawler.BatchStart(ctx, urls, interfaces.ScrapeOptions{Formats: []string{"markdown"}})
	if err != nil {
		job.AppendError("", fmt.Errorf("new-url batch start: %w", err))
		return 0
	}
	job.FirecrawlBatchIDs = append(job.FirecrawlBatchIDs, batchID)

	status, err := e.crawler.BatchWait(ctx, batchID, interfaces.BatchWaitOptions{
		PollInterval: e.config.BatchPollInterval,
		MaxWait:      e.config.BatchMaxWait,
	})
	if err != nil {
		job.AppendError("", fmt.Errorf("new-url batch wait: %w", err))
		return 0
	}

	return e.persistScrapeResults(ctx, website.ID, job, status.Data, true)
}

func (e *Engine) reconcileExistingURLs(ctx context.Context, job *models.ProcessJob, website *models.Website, urls []string) int {
	batchID, err := e.crawler.BatchStart(ctx, urls, interfaces.ScrapeOptions{Formats: []string{"markdown"}})
	if err != nil {
		job.AppendError("", fmt.Errorf("existing-url batch start: %w", err))
		return 0
	}
	job.FirecrawlBatchIDs = append(job.FirecrawlBatchIDs, batchID)

	status, err := e.crawler.BatchWait(ctx, batchID, interfaces.BatchWaitOptions{
		PollInterval: e.config.BatchPollInterval,
		MaxWait:      e.config.BatchMaxWait,
	})
	if err != nil {
		job.AppendError("", fmt.Errorf("existing-url batch wait: %w", err))
		return 0
	}

	updated := 0
	for _, r := range status.Data {
		existing, err := e.storage.GetPageByURL(ctx, website.ID, r.Data.URL)
		if err != nil {
			continue
		}

		if !r.Success {
			if isNotFoundErr(fmt.Errorf("%s", r.Error)) || r.Data.Metadata.StatusCode == 404 || r.Data.Metadata.StatusCode == 410 {
				if err := e.storage.IncrementMissingCount(ctx, website.ID, []string{r.Data.URL}); err != nil {
					job.AppendError(r.Data.URL, err)
				}
			}
			continue
		}

		if r.Data.Markdown == "" {
			now := time.Now().UTC()
			e.storage.UpdatePage(ctx, existing.ID, interfaces.PageStorePatch{LastScraped: &now})
			e.storage.UpdatePagesLastSeen(ctx, website.ID, []string{r.Data.URL}, now)
			continue
		}

		newHash, changed := hasher.Changed(r.Data.Markdown, existing.ContentHash)
		now := time.Now().UTC()
		httpStatus := r.Data.Metadata.StatusCode
		if !changed {
			e.storage.UpdatePage(ctx, existing.ID, interfaces.PageStorePatch{
				LastScraped:          &now,
				LastHTTPStatus:       &httpStatus,
				IncrementScrapeCount: true,
			})
			continue
		}

		reindex := models.PageStatusReadyForReIndexing
		markdown := r.Data.Markdown
		if err := e.storage.UpdatePage(ctx, existing.ID, interfaces.PageStorePatch{
			Status:               &reindex,
			ContentHash:          &newHash,
			Markdown:             &markdown,
			LastHTTPStatus:       &httpStatus,
			LastScraped:          &now,
			LastUpdatedBySyncID:  &job.ID,
			IncrementScrapeCount: true,
		}); err != nil {
			job.AppendError(r.Data.URL, err)
			continue
		}
		updated++
	}
	return updated
}
