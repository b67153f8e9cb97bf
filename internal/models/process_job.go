package models

import (
	"fmt"
	"time"
)

// ProcessType is a tagged enumeration of the job kinds the Job Engine owns.
// Modeled as a single ProcessJob record with a string tag rather than a
// class hierarchy.
type ProcessType string

const (
	ProcessTypeIngestion     ProcessType = "ingestion"
	ProcessTypeSync          ProcessType = "sync"
	ProcessTypeIndexing      ProcessType = "indexing"
	ProcessTypeManualReindex ProcessType = "manual_reindex"
)

// JobStatus is the terminal-or-running status of a ProcessJob.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobError is one {url,error,timestamp} entry appended to a job's Errors list.
type JobError struct {
	URL       string    `json:"url,omitempty"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// ProcessJob is one row per pipeline run.
//
// Metadata is a free-form map used for progress ({completed,total,percentage}),
// parent-job lineage ({ingestionJobId}/{syncJobId}), and per-page document
// states captured during indexing (documentStates). Keep it a map, not typed
// sub-structs, so callers reading an in-flight job see partial writes.
type ProcessJob struct {
	ID                string                 `json:"id" boltholdKey:"ID"`
	WebsiteID         string                 `json:"website_id" boltholdIndex:"WebsiteID"`
	ProcessType       ProcessType            `json:"process_type" boltholdIndex:"ProcessType"`
	Status            JobStatus              `json:"status" boltholdIndex:"Status"`
	StartedAt         time.Time              `json:"started_at"`
	CompletedAt       time.Time              `json:"completed_at,omitempty"`
	URLsDiscovered    int                    `json:"urls_discovered"`
	URLsUpdated       int                    `json:"urls_updated"`
	URLsDeleted       int                    `json:"urls_deleted"`
	URLsErrored       int                    `json:"urls_errored"`
	FirecrawlBatchIDs []string               `json:"firecrawl_batch_ids"`
	Errors            []JobError             `json:"errors"`
	Metadata          map[string]interface{} `json:"metadata"`
}

// NewProcessJob constructs a running job with the zero-value defaults the
// Page Store Adapter's create operation is required to populate: status=
// running, empty batch-id list, empty metadata.
func NewProcessJob(id, websiteID string, processType ProcessType) *ProcessJob {
	return &ProcessJob{
		ID:                id,
		WebsiteID:         websiteID,
		ProcessType:       processType,
		Status:            JobStatusRunning,
		StartedAt:         time.Now().UTC(),
		FirecrawlBatchIDs: []string{},
		Errors:            []JobError{},
		Metadata:          map[string]interface{}{},
	}
}

// AppendError appends a {url,error,timestamp} entry. Per-URL failures never
// abort a job; this is the accumulation point for them.
func (j *ProcessJob) AppendError(url string, err error) {
	j.Errors = append(j.Errors, JobError{
		URL:       url,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	})
}

// Complete marks the job completed and stamps CompletedAt.
func (j *ProcessJob) Complete() {
	j.Status = JobStatusCompleted
	j.CompletedAt = time.Now().UTC()
}

// Fail marks the job failed with a terminal error entry. Every returning
// path out of the Job Engine must leave the job row in a terminal status —
// this is the single place that does so for failure paths.
func (j *ProcessJob) Fail(reason error) {
	j.AppendError("", reason)
	j.Status = JobStatusFailed
	j.CompletedAt = time.Now().UTC()
}

// SetProgress writes metadata.progress.{completed,total,percentage}, the
// UI-polling contract: this write cadence is explicit, not a side effect of
// logging.
func (j *ProcessJob) SetProgress(completed, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(completed) / float64(total) * 100
	}
	j.Metadata["progress"] = map[string]interface{}{
		"completed":  completed,
		"total":      total,
		"percentage": percentage,
	}
}

// SetParentJobID records the job this one was spawned from, keyed by the
// parent's own process type (ingestionJobId / syncJobId).
func (j *ProcessJob) SetParentJobID(parentType ProcessType, parentID string) {
	switch parentType {
	case ProcessTypeIngestion:
		j.Metadata["ingestionJobId"] = parentID
	case ProcessTypeSync:
		j.Metadata["syncJobId"] = parentID
	}
}

// DocumentState is the three-valued enumeration the indexer derives from the
// external search store's string state. Kept in job metadata, not the page
// row, since it reflects an in-flight upload rather than durable page state.
type DocumentState string

const (
	DocumentStateActive     DocumentState = "ACTIVE"
	DocumentStateProcessing DocumentState = "PROCESSING"
	DocumentStateFailed     DocumentState = "FAILED"
)

// SetDocumentState records one page's observed document state into
// metadata.documentStates, creating the map on first use.
func (j *ProcessJob) SetDocumentState(pageID string, state DocumentState) {
	raw, ok := j.Metadata["documentStates"].(map[string]interface{})
	if !ok {
		raw = map[string]interface{}{}
		j.Metadata["documentStates"] = raw
	}
	raw[pageID] = string(state)
}

// DocumentStateCounts aggregates metadata.documentStates into the
// activeCount/processingCount/failedCount summary written at job finalization.
func (j *ProcessJob) DocumentStateCounts() (active, processing, failed int) {
	raw, ok := j.Metadata["documentStates"].(map[string]interface{})
	if !ok {
		return 0, 0, 0
	}
	for _, v := range raw {
		switch DocumentState(fmt.Sprint(v)) {
		case DocumentStateActive:
			active++
		case DocumentStateProcessing:
			processing++
		case DocumentStateFailed:
			failed++
		}
	}
	return active, processing, failed
}
