package interfaces

import (
	"context"
	"time"
)

// Link is one discovered URL, optionally carrying page metadata the crawler
// was able to read cheaply during mapping.
type Link struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// MapOptions controls Crawler.Map.
type MapOptions struct {
	Search            string        `json:"search,omitempty"`
	IncludeSubdomains bool          `json:"include_subdomains,omitempty"`
	Limit             int           `json:"limit,omitempty"` // default 5000
	Timeout           time.Duration `json:"-"`
}

// MapResult is the outcome of Crawler.Map.
type MapResult struct {
	Success bool
	Links   []Link
	Error   string
}

// ScrapeMetadata is the page metadata a scrape must carry; unknown fields
// are preserved by callers via Extra.
type ScrapeMetadata struct {
	SourceURL   string            `json:"sourceURL"`
	StatusCode  int               `json:"statusCode"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	OGImage     string            `json:"ogImage,omitempty"`
	Language    string            `json:"language,omitempty"`
	Extra       map[string]string `json:"-"`
}

// ScrapeOptions controls Crawler.Scrape and the per-URL shape of a batch fetch.
type ScrapeOptions struct {
	Formats         []string `json:"formats,omitempty"` // default ["markdown"]
	OnlyMainContent bool     `json:"only_main_content,omitempty"`
}

// ScrapeData is the successful payload of a single scrape.
type ScrapeData struct {
	URL      string
	Markdown string
	HTML     string
	Metadata ScrapeMetadata
}

// ScrapeResult is the outcome of Crawler.Scrape or one entry of a batch result.
type ScrapeResult struct {
	Success bool
	Data    ScrapeData
	Error   string
}

// BatchStatusState is the lifecycle of a batch fetch job on the crawler side.
type BatchStatusState string

const (
	BatchStatusScraping  BatchStatusState = "scraping"
	BatchStatusCompleted BatchStatusState = "completed"
	BatchStatusFailed    BatchStatusState = "failed"
)

// BatchStatus is the outcome of Crawler.BatchStatus.
type BatchStatus struct {
	Status    BatchStatusState
	Completed int
	Total     int
	Data      []ScrapeResult
	Error     string
}

// ProgressFunc is invoked during BatchWait as batch progress is observed, so
// the caller can persist metadata.progress without BatchWait knowing about
// job storage. The caller throttles its own writes: Ingest persists at most
// once per CorpusConfig.ProgressWriteInterval (default 30s).
type ProgressFunc func(completed, total int)

// BatchWaitOptions controls Crawler.BatchWait.
type BatchWaitOptions struct {
	PollInterval time.Duration // default 5s
	MaxWait      time.Duration // default 10m
	OnProgress   ProgressFunc
}

// Crawler is the web-crawling collaborator implemented outside this module's
// core. The core depends only on this interface; no production
// implementation ships as part of this module.
type Crawler interface {
	// Map returns the set of URLs reachable from a seed.
	Map(ctx context.Context, seedURL string, opts MapOptions) (MapResult, error)
	// Scrape fetches a single URL.
	Scrape(ctx context.Context, url string, opts ScrapeOptions) (ScrapeResult, error)
	// BatchStart starts an asynchronous batch fetch and returns its job id.
	BatchStart(ctx context.Context, urls []string, opts ScrapeOptions) (jobID string, err error)
	// BatchStatus polls a batch fetch job once.
	BatchStatus(ctx context.Context, jobID string) (BatchStatus, error)
	// BatchWait polls BatchStatus until completion, failure, or MaxWait elapses.
	BatchWait(ctx context.Context, jobID string, opts BatchWaitOptions) (BatchStatus, error)
	// BatchCancel cancels a running batch fetch job.
	BatchCancel(ctx context.Context, jobID string) error
}
