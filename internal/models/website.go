package models

import "time"

// Website represents a registered base domain.
//
// Invariants: BaseDomain is unique across the table; once assigned,
// SearchStoreID is immutable; each subdomain other than "www" is a distinct
// website (see internal/services/urlscope for base-domain reduction rules).
type Website struct {
	ID                    string    `json:"id" boltholdKey:"ID"`
	SeedURL               string    `json:"seed_url"`
	BaseDomain            string    `json:"base_domain" boltholdIndex:"BaseDomain"`
	DisplayName           string    `json:"display_name"`
	SearchStoreID         string    `json:"search_store_id"`
	SearchStoreName       string    `json:"search_store_name"`
	LastFullCrawl         time.Time `json:"last_full_crawl"`
	CreatedByIngestionID  string    `json:"created_by_ingestion_id"`
	Deleted               bool      `json:"deleted"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// HasSearchStore reports whether the website has an associated external
// search store identifier.
func (w *Website) HasSearchStore() bool {
	return w.SearchStoreID != ""
}
