package common

import (
	"github.com/google/uuid"
)

// NewWebsiteID generates a unique website id with the "site_" prefix.
func NewWebsiteID() string {
	return "site_" + uuid.New().String()
}

// NewPageID generates a unique page id with the "page_" prefix.
func NewPageID() string {
	return "page_" + uuid.New().String()
}

// NewJobID generates a unique process-job id with the "job_" prefix.
func NewJobID() string {
	return "job_" + uuid.New().String()
}
