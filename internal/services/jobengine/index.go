package jobengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/sitecorpus/internal/common"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
)

// Index deletes external documents for pages marked ready_for_deletion, then
// uploads markdown for pages marked ready_for_indexing or
// ready_for_re_indexing, verifying each upload before marking the page
// active.
func (e *Engine) Index(ctx context.Context, in IndexInput) (*IndexResult, error) {
	website, err := e.storage.GetWebsite(ctx, in.WebsiteID)
	if err != nil {
		return nil, fmt.Errorf("load website: %w", err)
	}

	job := models.NewProcessJob(common.NewJobID(), website.ID, models.ProcessTypeIndexing)
	if in.SyncJobID != "" {
		job.SetParentJobID(models.ProcessTypeSync, in.SyncJobID)
	} else if in.IngestionJobID != "" {
		job.SetParentJobID(models.ProcessTypeIngestion, in.IngestionJobID)
	}

	if website.SearchStoreID == "" {
		if !in.AutoCreateStore {
			return nil, fmt.Errorf("website has no search store and auto_create_store is disabled")
		}
		store, err := e.search.CreateStore(ctx, fmt.Sprintf("website-%s-%d", dashed(website.BaseDomain), time.Now().UnixMilli()))
		if err != nil {
			return nil, fmt.Errorf("create search store: %w", err)
		}
		website.SearchStoreID = store.Name
		website.SearchStoreName = store.DisplayName
		if err := e.storage.UpdateWebsite(ctx, website); err != nil {
			return nil, fmt.Errorf("persist search store: %w", err)
		}
	}

	if err := e.storage.CreateProcessJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create indexing job: %w", err)
	}

	parentJobID := firstNonEmpty(in.SyncJobID, in.IngestionJobID)
	pageCap := e.config.IndexingPageCap

	var readyForIndexing, readyForReIndexing, readyForDeletion []*models.Page
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		readyForIndexing, err = e.storage.GetPagesReadyForIndexing(gctx, website.ID, parentJobID, pageCap)
		return err
	})
	group.Go(func() (err error) {
		readyForReIndexing, err = e.storage.GetPagesReadyForReIndexing(gctx, website.ID, parentJobID, pageCap)
		return err
	})
	group.Go(func() (err error) {
		readyForDeletion, err = e.storage.GetPagesReadyForDeletion(gctx, website.ID, parentJobID, pageCap)
		return err
	})
	if err := group.Wait(); err != nil {
		err = fmt.Errorf("fetch indexing work: %w", err)
		job.Fail(err)
		e.storage.UpdateProcessJob(ctx, job)
		return nil, err
	}

	e.runDeletionPass(ctx, job, website.SearchStoreID, readyForDeletion)

	pagesIndexed := e.runUploadPass(ctx, job, website, append(readyForIndexing, readyForReIndexing...))

	active, processing, failed := job.DocumentStateCounts()
	job.Metadata["activeCount"] = active
	job.Metadata["processingCount"] = processing
	job.Metadata["failedCount"] = failed
	job.Complete()
	if err := e.storage.UpdateProcessJob(ctx, job); err != nil {
		return nil, fmt.Errorf("finalize indexing job: %w", err)
	}

	return &IndexResult{
		IndexingJobID: job.ID,
		WebsiteID:     website.ID,
		PagesIndexed:  pagesIndexed,
		Errors:        job.Errors,
	}, nil
}

func (e *Engine) runDeletionPass(ctx context.Context, job *models.ProcessJob, storeID string, pages []*models.Page) {
	var toMark []string
	for _, p := range pages {
		if p.SearchFileID != "" {
			if err := e.search.DeleteDocument(ctx, p.SearchFileID); err != nil {
				job.AppendError(p.URL, fmt.Errorf("delete document: %w", err))
				continue
			}
		}
		toMark = append(toMark, p.ID)
	}
	if len(toMark) > 0 {
		if err := e.storage.MarkPagesDeleted(ctx, toMark); err != nil {
			job.AppendError("", fmt.Errorf("mark pages deleted: %w", err))
		}
	}
}

func (e *Engine) runUploadPass(ctx context.Context, job *models.ProcessJob, website *models.Website, pages []*models.Page) int {
	concurrency := e.config.UploadConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	indexed := 0
	for start := 0; start < len(pages); start += concurrency {
		end := start + concurrency
		if end > len(pages) {
			end = len(pages)
		}
		batch := pages[start:end]

		group, gctx := errgroup.WithContext(ctx)
		results := make([]bool, len(batch))
		for i, p := range batch {
			i, p := i, p
			group.Go(func() error {
				results[i] = e.uploadAndVerify(gctx, job, website, p)
				return nil
			})
		}
		_ = group.Wait()

		for _, ok := range results {
			if ok {
				indexed++
			}
		}

		if end < len(pages) {
			time.Sleep(e.config.InterBatchPause)
		}
	}
	return indexed
}

// uploadAndVerify uploads one page's markdown and polls the resulting
// document once, after a fixed settle delay, to classify it as active,
// failed, or still pending. It reports true only when the page becomes
// active.
func (e *Engine) uploadAndVerify(ctx context.Context, job *models.ProcessJob, website *models.Website, page *models.Page) bool {
	if page.Status == models.PageStatusReadyForReIndexing && page.SearchFileID != "" {
		if err := e.search.DeleteDocument(ctx, page.SearchFileID); err != nil {
			job.AppendError(page.URL, fmt.Errorf("delete stale document: %w", err))
		}
		clear := ""
		e.storage.UpdatePage(ctx, page.ID, interfaces.PageStorePatch{SearchFileID: &clear, SearchFileName: &clear})
		page.SearchFileID = ""
		page.SearchFileName = ""
	}

	doc, err := e.uploadWithRateLimitRetry(ctx, website.SearchStoreID, page)
	if err != nil {
		job.AppendError(page.URL, err)
		clear := ""
		e.storage.UpdatePage(ctx, page.ID, interfaces.PageStorePatch{SearchFileID: &clear})
		return false
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(e.config.VerificationDelay):
	}

	state, err := e.classifyDocument(ctx, doc.Name)
	if err != nil {
		state = interfaces.DocumentStatePending
	}
	switch state {
	case interfaces.DocumentStateActive:
		job.SetDocumentState(page.ID, models.DocumentStateActive)
	case interfaces.DocumentStateFailed:
		job.SetDocumentState(page.ID, models.DocumentStateFailed)
	default:
		job.SetDocumentState(page.ID, models.DocumentStateProcessing)
	}

	switch state {
	case interfaces.DocumentStateActive:
		status := models.PageStatusActive
		now := time.Now().UTC()
		empty := ""
		e.storage.UpdatePage(ctx, page.ID, interfaces.PageStorePatch{
			Status:         &status,
			SearchFileID:   &doc.Name,
			SearchFileName: &doc.DisplayName,
			LastScraped:    &now,
			ErrorMessage:   &empty,
		})
		return true
	case interfaces.DocumentStateFailed:
		if err := e.search.DeleteDocument(ctx, doc.Name); err != nil {
			job.AppendError(page.URL, fmt.Errorf("cleanup failed document: %w", err))
		}
		clear := ""
		msg := "document failed verification"
		e.storage.UpdatePage(ctx, page.ID, interfaces.PageStorePatch{SearchFileID: &clear, ErrorMessage: &msg})
		return false
	default:
		// PENDING: leave the page in its ready state, re-verify next run.
		return false
	}
}

func (e *Engine) uploadWithRateLimitRetry(ctx context.Context, storeID string, page *models.Page) (interfaces.Document, error) {
	meta := interfaces.UploadMetadata{
		URL:         page.URL,
		Title:       page.Title,
		Path:        page.Path,
		LastUpdated: time.Now().UTC(),
	}

	doc, err := e.search.Upload(ctx, storeID, page.Markdown, meta)
	if err == nil {
		return doc, nil
	}
	if !isRateLimited(err) {
		return interfaces.Document{}, err
	}

	select {
	case <-ctx.Done():
		return interfaces.Document{}, ctx.Err()
	case <-time.After(e.config.UploadRetryBackoff):
	}
	return e.search.Upload(ctx, storeID, page.Markdown, meta)
}

func (e *Engine) classifyDocument(ctx context.Context, name string) (interfaces.DocumentState, error) {
	doc, err := e.search.GetDocument(ctx, name)
	if err != nil {
		if isNotFoundErr(err) {
			return interfaces.DocumentStatePending, nil
		}
		return "", err
	}
	return doc.State, nil
}

func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}

func isNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}
