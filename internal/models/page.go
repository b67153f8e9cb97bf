package models

import "time"

// PageStatus is the finite state a Page can occupy.
type PageStatus string

const (
	// PageStatusPending means the URL was discovered but not yet fetched.
	PageStatusPending PageStatus = "pending"
	// PageStatusReadyForIndexing means Markdown is persisted and not yet uploaded.
	PageStatusReadyForIndexing PageStatus = "ready_for_indexing"
	// PageStatusReadyForReIndexing means Markdown changed; the old external
	// document must be deleted before re-upload.
	PageStatusReadyForReIndexing PageStatus = "ready_for_re_indexing"
	// PageStatusReadyForDeletion means the URL has gone missing past threshold
	// and the external document must be deleted.
	PageStatusReadyForDeletion PageStatus = "ready_for_deletion"
	// PageStatusProcessing is transient: the indexer is currently uploading.
	PageStatusProcessing PageStatus = "processing"
	// PageStatusActive means the external document is verified ACTIVE and queryable.
	PageStatusActive PageStatus = "active"
	// PageStatusDeleted means the external document was removed; row kept for audit.
	PageStatusDeleted PageStatus = "deleted"
	// PageStatusRedirect means the URL resolves to a different page.
	PageStatusRedirect PageStatus = "redirect"
	// PageStatusError means a persistent failure is noted in ErrorMessage.
	PageStatusError PageStatus = "error"
)

// PageMetadata carries free-form page attributes scraped alongside the
// Markdown body: title/description/og-image/language and anything else the
// crawler's metadata map surfaced. Unknown fields must be preserved in Extra.
type PageMetadata struct {
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	OGImage     string            `json:"og_image,omitempty"`
	Language    string            `json:"language,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Page is one row per (website, URL).
//
// Invariants:
//   - (WebsiteID, URL) is unique.
//   - status=active  => SearchFileID != "" && ContentHash != "".
//   - status∈{ready_for_indexing,ready_for_re_indexing} => Markdown non-empty && ContentHash != "".
//   - status=deleted => SearchFileID == "".
type Page struct {
	ID                 string       `json:"id" boltholdKey:"ID"`
	WebsiteID          string       `json:"website_id" boltholdIndex:"WebsiteID"`
	URL                string       `json:"url"`
	Path               string       `json:"path"`
	Title              string       `json:"title"`
	Status             PageStatus   `json:"status" boltholdIndex:"Status"`
	ContentHash        string       `json:"content_hash"`
	Markdown           string       `json:"markdown"`
	LastHTTPStatus     int          `json:"last_http_status"`
	ScrapeCount        int          `json:"scrape_count"`
	MissingCount       int          `json:"missing_count"`
	LastScraped        time.Time    `json:"last_scraped"`
	LastSeen           time.Time    `json:"last_seen"`
	SearchFileID       string       `json:"search_file_id"`
	SearchFileName     string       `json:"search_file_name"`
	Metadata           PageMetadata `json:"metadata"`
	CreatedByIngestionID string     `json:"created_by_ingestion_id,omitempty"`
	CreatedBySyncID      string     `json:"created_by_sync_id,omitempty"`
	LastUpdatedBySyncID  string     `json:"last_updated_by_sync_id,omitempty"`
	FirecrawlBatchID     string     `json:"firecrawl_batch_id,omitempty"`
	ErrorMessage       string       `json:"error_message,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// IsReadyForUpload reports whether the page carries the content required to
// be picked up by an indexing pass (non-empty Markdown and a computed hash).
func (p *Page) IsReadyForUpload() bool {
	return p.Markdown != "" && p.ContentHash != ""
}
