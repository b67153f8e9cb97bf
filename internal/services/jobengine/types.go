package jobengine

import "github.com/ternarybob/sitecorpus/internal/models"

// IngestInput is the caller-supplied request to start or resume ingestion
// of a website.
type IngestInput struct {
	SeedURL     string
	DisplayName string
}

// IngestResult is the outcome of an ingestion run, whether freshly executed
// or reconstructed from a previously completed job.
type IngestResult struct {
	WebsiteID      string
	BaseDomain     string
	SearchStoreID  string
	PagesDiscovered int
	PagesWritten    int
	Errors          []models.JobError
	IngestionJobID  string
}

// SyncResult is the outcome of a sync run.
type SyncResult struct {
	SyncJobID      string
	URLsDiscovered int
	URLsUpdated    int
	URLsDeleted    int
	URLsErrored    int
	Errors         []models.JobError
}

// IndexInput is the caller-supplied request to run an indexing pass.
type IndexInput struct {
	WebsiteID       string
	IngestionJobID  string
	SyncJobID       string
	AutoCreateStore bool
}

// IndexResult is the outcome of an indexing run.
type IndexResult struct {
	IndexingJobID string
	WebsiteID     string
	PagesIndexed  int
	Errors        []models.JobError
}

// RecoveryStatus is the outcome class of a recovery attempt.
type RecoveryStatus string

const (
	RecoveryCompleted    RecoveryStatus = "completed"
	RecoveryFailed       RecoveryStatus = "failed"
	RecoveryStillRunning RecoveryStatus = "still_running"
	RecoveryCannotRecover RecoveryStatus = "cannot_recover"
)

// RecoveryResult is the outcome of attempting to recover a stuck ingestion job.
type RecoveryResult struct {
	Recovered bool
	Status    RecoveryStatus
	Result    *IngestResult
	Error     string
}
