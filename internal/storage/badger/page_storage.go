package badger

import (
	"fmt"
	"sort"
	"time"

	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// PageStorage implements interfaces.PageStore for Badger.
type PageStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewPageStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PageStore {
	return &PageStorage{db: db, logger: logger}
}

func (s *PageStorage) CreatePage(ctx context.Context, p *models.Page) error {
	if p.ID == "" {
		return fmt.Errorf("page ID is required")
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := s.db.Store().Insert(p.ID, p); err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	return nil
}

func (s *PageStorage) CreatePages(ctx context.Context, pages []*models.Page) error {
	for _, p := range pages {
		if err := s.CreatePage(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPage inserts or updates by the (WebsiteID, URL) uniqueness constraint.
func (s *PageStorage) UpsertPage(ctx context.Context, p *models.Page) error {
	existing, err := s.GetPageByURL(ctx, p.WebsiteID, p.URL)
	if err == nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := s.db.Store().Upsert(p.ID, p); err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	return nil
}

func (s *PageStorage) UpsertPages(ctx context.Context, pages []*models.Page) error {
	for _, p := range pages {
		if err := s.UpsertPage(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *PageStorage) GetPage(ctx context.Context, id string) (*models.Page, error) {
	var p models.Page
	if err := s.db.Store().Get(id, &p); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("page not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return &p, nil
}

func (s *PageStorage) GetPageByURL(ctx context.Context, websiteID, url string) (*models.Page, error) {
	var pages []models.Page
	err := s.db.Store().Find(&pages, badgerhold.Where("WebsiteID").Eq(websiteID).And("URL").Eq(url))
	if err != nil {
		return nil, fmt.Errorf("failed to find page: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("page not found for url: %s", url)
	}
	return &pages[0], nil
}

func (s *PageStorage) ListPagesByWebsite(ctx context.Context, websiteID string, opts interfaces.ListOptions) ([]*models.Page, error) {
	query := badgerhold.Where("WebsiteID").Eq(websiteID)
	var pages []models.Page
	if err := s.db.Store().Find(&pages, query); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	if len(opts.StatusFilter) > 0 {
		pages = filterByStatus(pages, opts.StatusFilter)
	}
	sortPagesByUpdatedAt(pages)
	if opts.Limit > 0 && opts.Limit < len(pages) {
		pages = pages[:opts.Limit]
	}
	return toPagePointers(pages), nil
}

func (s *PageStorage) GetPagesByStatuses(ctx context.Context, websiteID string, statuses []models.PageStatus) ([]*models.Page, error) {
	var pages []models.Page
	err := s.db.Store().Find(&pages, badgerhold.Where("WebsiteID").Eq(websiteID))
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return toPagePointers(filterByStatus(pages, statuses)), nil
}

func (s *PageStorage) getPagesReadyFor(ctx context.Context, websiteID string, status models.PageStatus, jobID string, limit int) ([]*models.Page, error) {
	var pages []models.Page
	err := s.db.Store().Find(&pages, badgerhold.Where("WebsiteID").Eq(websiteID).And("Status").Eq(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	filtered := make([]models.Page, 0, len(pages))
	for _, p := range pages {
		if p.Markdown == "" {
			continue
		}
		if status == models.PageStatusReadyForIndexing && p.SearchFileID != "" {
			continue
		}
		if jobID != "" && !pageBelongsToJob(&p, jobID) {
			continue
		}
		filtered = append(filtered, p)
	}

	sortPagesByUpdatedAt(filtered)
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return toPagePointers(filtered), nil
}

func (s *PageStorage) GetPagesReadyForIndexing(ctx context.Context, websiteID, jobID string, limit int) ([]*models.Page, error) {
	return s.getPagesReadyFor(ctx, websiteID, models.PageStatusReadyForIndexing, jobID, limit)
}

func (s *PageStorage) GetPagesReadyForReIndexing(ctx context.Context, websiteID, jobID string, limit int) ([]*models.Page, error) {
	return s.getPagesReadyFor(ctx, websiteID, models.PageStatusReadyForReIndexing, jobID, limit)
}

func (s *PageStorage) GetPagesReadyForDeletion(ctx context.Context, websiteID, jobID string, limit int) ([]*models.Page, error) {
	return s.getPagesReadyFor(ctx, websiteID, models.PageStatusReadyForDeletion, jobID, limit)
}

func (s *PageStorage) UpdatePagesLastSeen(ctx context.Context, websiteID string, urls []string, ts time.Time) error {
	var pages []models.Page
	err := s.db.Store().Find(&pages, badgerhold.Where("WebsiteID").Eq(websiteID).And("URL").In(toInterfaceSlice(urls)...))
	if err != nil {
		return fmt.Errorf("failed to find pages: %w", err)
	}
	for i := range pages {
		pages[i].LastSeen = ts
		pages[i].MissingCount = 0
		pages[i].UpdatedAt = time.Now().UTC()
		if err := s.db.Store().Update(pages[i].ID, &pages[i]); err != nil {
			return fmt.Errorf("failed to update page last_seen: %w", err)
		}
	}
	return nil
}

// IncrementMissingCount adds one to the missing count of each page on every
// call, so a URL observed missing on consecutive sync passes accumulates a
// count of one per pass.
func (s *PageStorage) IncrementMissingCount(ctx context.Context, websiteID string, urls []string) error {
	var pages []models.Page
	err := s.db.Store().Find(&pages, badgerhold.Where("WebsiteID").Eq(websiteID).And("URL").In(toInterfaceSlice(urls)...))
	if err != nil {
		return fmt.Errorf("failed to find pages: %w", err)
	}
	for i := range pages {
		pages[i].MissingCount++
		pages[i].UpdatedAt = time.Now().UTC()
		if err := s.db.Store().Update(pages[i].ID, &pages[i]); err != nil {
			return fmt.Errorf("failed to increment missing_count: %w", err)
		}
	}
	return nil
}

func (s *PageStorage) GetPagesPastDeletionThreshold(ctx context.Context, websiteID string, n int) ([]*models.Page, error) {
	var pages []models.Page
	err := s.db.Store().Find(&pages, badgerhold.Where("WebsiteID").Eq(websiteID).And("Status").Ne(models.PageStatusDeleted))
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	var result []*models.Page
	for i := range pages {
		if pages[i].MissingCount >= n {
			result = append(result, &pages[i])
		}
	}
	return result, nil
}

func (s *PageStorage) MarkPagesDeleted(ctx context.Context, ids []string) error {
	for _, id := range ids {
		p, err := s.GetPage(ctx, id)
		if err != nil {
			return err
		}
		p.Status = models.PageStatusDeleted
		p.SearchFileID = ""
		p.SearchFileName = ""
		p.UpdatedAt = time.Now().UTC()
		if err := s.db.Store().Update(p.ID, p); err != nil {
			return fmt.Errorf("failed to mark page deleted: %w", err)
		}
	}
	return nil
}

func (s *PageStorage) UpdatePage(ctx context.Context, id string, patch interfaces.PageStorePatch) error {
	p, err := s.GetPage(ctx, id)
	if err != nil {
		return err
	}

	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.ContentHash != nil {
		p.ContentHash = *patch.ContentHash
	}
	if patch.Markdown != nil {
		p.Markdown = *patch.Markdown
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.LastHTTPStatus != nil {
		p.LastHTTPStatus = *patch.LastHTTPStatus
	}
	if patch.SearchFileID != nil {
		p.SearchFileID = *patch.SearchFileID
	}
	if patch.SearchFileName != nil {
		p.SearchFileName = *patch.SearchFileName
	}
	if patch.ErrorMessage != nil {
		p.ErrorMessage = *patch.ErrorMessage
	}
	if patch.Metadata != nil {
		p.Metadata = *patch.Metadata
	}
	if patch.LastScraped != nil {
		p.LastScraped = *patch.LastScraped
	}
	if patch.LastUpdatedBySyncID != nil {
		p.LastUpdatedBySyncID = *patch.LastUpdatedBySyncID
	}
	if patch.IncrementScrapeCount {
		p.ScrapeCount++
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.db.Store().Update(p.ID, p); err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	return nil
}

func pageBelongsToJob(p *models.Page, jobID string) bool {
	return p.CreatedByIngestionID == jobID || p.CreatedBySyncID == jobID || p.LastUpdatedBySyncID == jobID
}

func filterByStatus(pages []models.Page, statuses []models.PageStatus) []models.Page {
	want := make(map[models.PageStatus]struct{}, len(statuses))
	for _, st := range statuses {
		want[st] = struct{}{}
	}
	filtered := make([]models.Page, 0, len(pages))
	for _, p := range pages {
		if _, ok := want[p.Status]; ok {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func sortPagesByUpdatedAt(pages []models.Page) {
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].UpdatedAt.Before(pages[j].UpdatedAt)
	})
}

func toPagePointers(pages []models.Page) []*models.Page {
	result := make([]*models.Page, len(pages))
	for i := range pages {
		result[i] = &pages[i]
	}
	return result
}

func toInterfaceSlice(urls []string) []interface{} {
	result := make([]interface{}, len(urls))
	for i, u := range urls {
		result[i] = u
	}
	return result
}
