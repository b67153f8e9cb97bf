package jobengine

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/sitecorpus/internal/common"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
)

// Ingest discovers and persists every page of a website reachable from a
// seed URL. Indexing is a separate operation and is never triggered here.
func (e *Engine) Ingest(ctx context.Context, in IngestInput) (*IngestResult, error) {
	if e.crawler == nil {
		return nil, fmt.Errorf("ingest requires a crawler, none configured")
	}

	seed, baseDomain, err := resolveSeed(in.SeedURL, in.DisplayName)
	if err != nil {
		return nil, err
	}

	website, err := e.storage.GetWebsiteByBaseDomain(ctx, baseDomain)
	if err == nil {
		return e.ingestExistingWebsite(ctx, website, seed)
	}

	return e.ingestNewWebsite(ctx, seed, baseDomain, in.DisplayName)
}

func (e *Engine) ingestExistingWebsite(ctx context.Context, website *models.Website, seed string) (*IngestResult, error) {
	jobs, err := e.storage.ListProcessJobsByWebsite(ctx, website.ID, interfaces.ListOptions{
		ProcessTypeFilter: models.ProcessTypeIngestion,
		Limit:             1,
	})
	if err != nil {
		return nil, fmt.Errorf("list ingestion jobs: %w", err)
	}

	if len(jobs) > 0 {
		latest := jobs[0]
		switch latest.Status {
		case models.JobStatusCompleted:
			return reconstructIngestResult(ctx, e.storage, website, latest)
		case models.JobStatusRunning:
			if time.Since(latest.StartedAt) < e.config.RecoveryStuckAfter {
				return nil, fmt.Errorf("ingestion already in progress")
			}
			recovery, err := e.Recover(ctx, latest.ID)
			if err != nil {
				return nil, err
			}
			switch recovery.Status {
			case RecoveryCompleted:
				return recovery.Result, nil
			case RecoveryStillRunning:
				return nil, fmt.Errorf("ingestion already in progress")
			}
			// failed or cannot_recover: fall through to a fresh job against the existing website.
		}
	}

	job := models.NewProcessJob(common.NewJobID(), website.ID, models.ProcessTypeIngestion)
	if err := e.storage.CreateProcessJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create ingestion job: %w", err)
	}

	return e.runIngestion(ctx, website, job, seed)
}

func (e *Engine) ingestNewWebsite(ctx context.Context, seed, baseDomain, displayName string) (*IngestResult, error) {
	store, err := e.search.CreateStore(ctx, fmt.Sprintf("website-%s-%d", dashed(baseDomain), time.Now().UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("create search store: %w", err)
	}

	website := &models.Website{
		ID:              common.NewWebsiteID(),
		SeedURL:         seed,
		BaseDomain:      baseDomain,
		DisplayName:     displayName,
		SearchStoreID:   store.Name,
		SearchStoreName: store.DisplayName,
	}

	job := models.NewProcessJob(common.NewJobID(), website.ID, models.ProcessTypeIngestion)
	website.CreatedByIngestionID = job.ID

	if err := e.storage.CreateWebsite(ctx, website); err != nil {
		return nil, fmt.Errorf("create website: %w", err)
	}
	if err := e.storage.CreateProcessJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create ingestion job: %w", err)
	}

	return e.runIngestion(ctx, website, job, seed)
}

func (e *Engine) runIngestion(ctx context.Context, website *models.Website, job *models.ProcessJob, seed string) (*IngestResult, error) {
	mapResult, err := e.crawler.Map(ctx, seed, interfaces.MapOptions{IncludeSubdomains: true})
	if err != nil || !mapResult.Success {
		job.Fail(fmt.Errorf("crawler map failed: %s", firstNonEmpty(mapResult.Error, errString(err))))
		e.storage.UpdateProcessJob(ctx, job)
		return nil, fmt.Errorf("crawler map failed")
	}

	urls := make([]string, 0, len(mapResult.Links))
	for _, link := range mapResult.Links {
		if normalized, err := normalizeQuiet(link.URL); err == nil {
			urls = append(urls, normalized)
		}
	}
	urls = uniqueStrings(urls)
	scoped := filterScoped(urls, website.BaseDomain)
	if len(scoped) == 0 {
		job.Fail(fmt.Errorf("no urls found within base domain %s", website.BaseDomain))
		e.storage.UpdateProcessJob(ctx, job)
		return nil, fmt.Errorf("no urls found within base domain %s", website.BaseDomain)
	}

	job.URLsDiscovered = len(scoped)

	batchID, err := e.crawler.BatchStart(ctx, scoped, interfaces.ScrapeOptions{Formats: []string{"markdown"}})
	if err != nil {
		job.Fail(fmt.Errorf("batch start failed: %w", err))
		e.storage.UpdateProcessJob(ctx, job)
		return nil, fmt.Errorf("batch start failed: %w", err)
	}
	job.FirecrawlBatchIDs = append(job.FirecrawlBatchIDs, batchID)
	if err := e.storage.UpdateProcessJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persist batch id: %w", err)
	}

	lastWrite := time.Now()
	status, err := e.crawler.BatchWait(ctx, batchID, interfaces.BatchWaitOptions{
		PollInterval: e.config.BatchPollInterval,
		MaxWait:      e.config.BatchMaxWait,
		OnProgress: func(completed, total int) {
			if time.Since(lastWrite) < e.config.ProgressWriteInterval {
				return
			}
			job.SetProgress(completed, total)
			e.storage.UpdateProcessJob(ctx, job)
			lastWrite = time.Now()
		},
	})
	if err != nil {
		job.Fail(fmt.Errorf("batch wait failed: %w", err))
		e.storage.UpdateProcessJob(ctx, job)
		return nil, fmt.Errorf("batch wait failed: %w", err)
	}
	if status.Status == interfaces.BatchStatusFailed {
		job.Fail(fmt.Errorf("crawler batch failed: %s", status.Error))
		e.storage.UpdateProcessJob(ctx, job)
		return nil, fmt.Errorf("crawler batch failed: %s", status.Error)
	}

	written := e.persistScrapeResults(ctx, website.ID, job, status.Data, false)

	job.URLsUpdated = written
	job.Complete()
	if err := e.storage.UpdateProcessJob(ctx, job); err != nil {
		return nil, fmt.Errorf("finalize ingestion job: %w", err)
	}

	website.LastFullCrawl = time.Now().UTC()
	if err := e.storage.UpdateWebsite(ctx, website); err != nil {
		return nil, fmt.Errorf("update website: %w", err)
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

func (e *Engine) persistScrapeResults(ctx context.Context, websiteID string, job *models.ProcessJob, results []interfaces.ScrapeResult, isSync bool) int {
	written := 0
	for _, r := range results {
		if !r.Success {
			job.AppendError(r.Data.URL, fmt.Errorf("%s", r.Error))
			continue
		}
		page, ok := buildPageFromScrape(websiteID, r.Data, job.ID, isSync)
		if !ok {
			job.AppendError(r.Data.URL, fmt.Errorf("discarded: missing url or markdown"))
			continue
		}
		page.LastSeen = time.Now().UTC()
		if err := e.storage.UpsertPage(ctx, page); err != nil {
			job.AppendError(page.URL, err)
			continue
		}
		written++
	}
	return written
}
