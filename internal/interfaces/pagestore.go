package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/sitecorpus/internal/models"
)

// ListOptions bounds and filters a list-style query. Zero values mean
// "unbounded" for Limit, "no filter" for StatusFilter/ProcessTypeFilter.
type ListOptions struct {
	Limit             int
	StatusFilter      []models.PageStatus
	ProcessTypeFilter models.ProcessType
}

// PageStorePatch is a sparse, single-row update. Only non-nil fields are
// applied; this backs PageStore.UpdatePage.
type PageStorePatch struct {
	Status         *models.PageStatus
	ContentHash    *string
	Markdown       *string
	Title          *string
	LastHTTPStatus *int
	SearchFileID   *string
	SearchFileName *string
	ErrorMessage   *string
	Metadata       *models.PageMetadata
	LastScraped    *time.Time
	// LastUpdatedBySyncID stamps lineage for sync-driven content writes; it
	// is what scopes a later indexing pass back to the sync job that produced it.
	LastUpdatedBySyncID *string
	// IncrementScrapeCount bumps ScrapeCount by one when true; every re-scrape
	// of an existing page (self-heal retry, sync unchanged, sync changed)
	// counts as one more scrape.
	IncrementScrapeCount bool
}

// WebsiteStore is the typed CRUD contract over the Website entity.
type WebsiteStore interface {
	CreateWebsite(ctx context.Context, w *models.Website) error
	GetWebsite(ctx context.Context, id string) (*models.Website, error)
	// GetWebsiteByBaseDomain is used for ingestion dedup and Query Facade resolution.
	GetWebsiteByBaseDomain(ctx context.Context, baseDomain string) (*models.Website, error)
	UpdateWebsite(ctx context.Context, w *models.Website) error
	ListWebsites(ctx context.Context) ([]*models.Website, error)
	// SoftDeleteWebsite marks the row deleted without removing it.
	SoftDeleteWebsite(ctx context.Context, id string) error
}

// PageStore is the typed CRUD contract over the Page entity plus the
// specialized queries the Job Engine relies on.
type PageStore interface {
	CreatePage(ctx context.Context, p *models.Page) error
	CreatePages(ctx context.Context, pages []*models.Page) error
	// UpsertPage inserts or updates by the (WebsiteID, URL) uniqueness constraint.
	UpsertPage(ctx context.Context, p *models.Page) error
	UpsertPages(ctx context.Context, pages []*models.Page) error

	GetPage(ctx context.Context, id string) (*models.Page, error)
	GetPageByURL(ctx context.Context, websiteID, url string) (*models.Page, error)
	ListPagesByWebsite(ctx context.Context, websiteID string, opts ListOptions) ([]*models.Page, error)
	GetPagesByStatuses(ctx context.Context, websiteID string, statuses []models.PageStatus) ([]*models.Page, error)

	// GetPagesReadyForIndexing returns status=ready_for_indexing rows with a
	// non-empty Markdown and an empty SearchFileID, ordered by UpdatedAt
	// ascending, optionally capped and scoped to a job's lineage.
	GetPagesReadyForIndexing(ctx context.Context, websiteID string, jobID string, limit int) ([]*models.Page, error)
	// GetPagesReadyForReIndexing is the analogous query for status=ready_for_re_indexing.
	GetPagesReadyForReIndexing(ctx context.Context, websiteID string, jobID string, limit int) ([]*models.Page, error)
	// GetPagesReadyForDeletion is the analogous query for status=ready_for_deletion.
	GetPagesReadyForDeletion(ctx context.Context, websiteID string, jobID string, limit int) ([]*models.Page, error)

	// UpdatePagesLastSeen bumps LastSeen to ts and resets MissingCount to zero.
	UpdatePagesLastSeen(ctx context.Context, websiteID string, urls []string, ts time.Time) error
	// IncrementMissingCount adds one per call; repeated calls accumulate.
	IncrementMissingCount(ctx context.Context, websiteID string, urls []string) error
	// GetPagesPastDeletionThreshold returns MissingCount>=n, status!=deleted rows.
	GetPagesPastDeletionThreshold(ctx context.Context, websiteID string, n int) ([]*models.Page, error)
	MarkPagesDeleted(ctx context.Context, ids []string) error

	UpdatePage(ctx context.Context, id string, patch PageStorePatch) error
}

// ProcessJobStore is the typed CRUD contract over the ProcessJob entity.
type ProcessJobStore interface {
	// CreateProcessJob persists a job with status=running, empty batch-id list,
	// and empty metadata (the defaults models.NewProcessJob already sets).
	CreateProcessJob(ctx context.Context, j *models.ProcessJob) error
	UpdateProcessJob(ctx context.Context, j *models.ProcessJob) error
	GetProcessJob(ctx context.Context, id string) (*models.ProcessJob, error)
	// ListProcessJobsByWebsite returns jobs descending by StartedAt, optionally
	// filtered to one process type and capped by opts.Limit.
	ListProcessJobsByWebsite(ctx context.Context, websiteID string, opts ListOptions) ([]*models.ProcessJob, error)
}

// CorpusStorage composes the three adapters plus lifecycle, mirroring the
// teacher's StorageManager composition pattern.
type CorpusStorage interface {
	WebsiteStore
	PageStore
	ProcessJobStore
	Close() error
}
