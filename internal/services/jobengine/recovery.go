package jobengine

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
)

// Recover inspects a (possibly stuck) ingestion job's crawler batch and
// either completes it from the batch's final state, marks it failed, or
// reports that the batch is still in progress. Calling Recover on a job
// that is not currently running is a no-op.
func (e *Engine) Recover(ctx context.Context, ingestionJobID string) (*RecoveryResult, error) {
	if e.crawler == nil {
		return nil, fmt.Errorf("recover requires a crawler, none configured")
	}

	job, err := e.storage.GetProcessJob(ctx, ingestionJobID)
	if err != nil {
		return nil, fmt.Errorf("load ingestion job: %w", err)
	}
	if job.Status != models.JobStatusRunning {
		return &RecoveryResult{Recovered: false, Status: terminalRecoveryStatus(job.Status)}, nil
	}

	if len(job.FirecrawlBatchIDs) == 0 {
		job.Fail(fmt.Errorf("no batch job id - cannot recover"))
		if err := e.storage.UpdateProcessJob(ctx, job); err != nil {
			return nil, fmt.Errorf("persist failed recovery: %w", err)
		}
		return &RecoveryResult{Recovered: true, Status: RecoveryCannotRecover, Error: "no batch job id - cannot recover"}, nil
	}

	batchID := job.FirecrawlBatchIDs[0]
	status, err := e.crawler.BatchStatus(ctx, batchID)
	if err != nil {
		job.SetProgress(0, 0)
		e.storage.UpdateProcessJob(ctx, job)
		return &RecoveryResult{Recovered: false, Status: RecoveryStillRunning}, nil
	}

	switch status.Status {
	case interfaces.BatchStatusCompleted:
		if len(status.Data) == 0 {
			job.Fail(fmt.Errorf("batch completed with no data"))
			e.storage.UpdateProcessJob(ctx, job)
			return &RecoveryResult{Recovered: true, Status: RecoveryFailed, Error: "batch completed with no data"}, nil
		}

		website, err := e.storage.GetWebsite(ctx, job.WebsiteID)
		if err != nil {
			return nil, fmt.Errorf("load website: %w", err)
		}

		written := e.persistScrapeResults(ctx, website.ID, job, status.Data, false)
		job.URLsUpdated = written
		job.Complete()
		if err := e.storage.UpdateProcessJob(ctx, job); err != nil {
			return nil, fmt.Errorf("finalize recovered job: %w", err)
		}

		website.LastFullCrawl = time.Now().UTC()
		if err := e.storage.UpdateWebsite(ctx, website); err != nil {
			return nil, fmt.Errorf("update website: %w", err)
		}

		result := &IngestResult{
			WebsiteID:       website.ID,
			BaseDomain:      website.BaseDomain,
			SearchStoreID:   website.SearchStoreID,
			PagesDiscovered: job.URLsDiscovered,
			PagesWritten:    written,
			Errors:          job.Errors,
			IngestionJobID:  job.ID,
		}
		return &RecoveryResult{Recovered: true, Status: RecoveryCompleted, Result: result}, nil

	case interfaces.BatchStatusFailed:
		job.Fail(fmt.Errorf("%s", status.Error))
		if err := e.storage.UpdateProcessJob(ctx, job); err != nil {
			return nil, fmt.Errorf("persist failed recovery: %w", err)
		}
		return &RecoveryResult{Recovered: true, Status: RecoveryFailed, Error: status.Error}, nil

	default:
		job.SetProgress(status.Completed, status.Total)
		if err := e.storage.UpdateProcessJob(ctx, job); err != nil {
			return nil, fmt.Errorf("persist recovery progress: %w", err)
		}
		return &RecoveryResult{Recovered: false, Status: RecoveryStillRunning}, nil
	}
}

func terminalRecoveryStatus(status models.JobStatus) RecoveryStatus {
	if status == models.JobStatusCompleted {
		return RecoveryCompleted
	}
	return RecoveryFailed
}
