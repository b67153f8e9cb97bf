package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ProcessJobStorage implements interfaces.ProcessJobStore for Badger.
type ProcessJobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewProcessJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProcessJobStore {
	return &ProcessJobStorage{db: db, logger: logger}
}

func (s *ProcessJobStorage) CreateProcessJob(ctx context.Context, j *models.ProcessJob) error {
	if j.ID == "" {
		return fmt.Errorf("process job ID is required")
	}
	if err := s.db.Store().Insert(j.ID, j); err != nil {
		return fmt.Errorf("failed to create process job: %w", err)
	}
	return nil
}

func (s *ProcessJobStorage) UpdateProcessJob(ctx context.Context, j *models.ProcessJob) error {
	if err := s.db.Store().Update(j.ID, j); err != nil {
		return fmt.Errorf("failed to update process job: %w", err)
	}
	return nil
}

func (s *ProcessJobStorage) GetProcessJob(ctx context.Context, id string) (*models.ProcessJob, error) {
	var j models.ProcessJob
	if err := s.db.Store().Get(id, &j); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("process job not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get process job: %w", err)
	}
	return &j, nil
}

func (s *ProcessJobStorage) ListProcessJobsByWebsite(ctx context.Context, websiteID string, opts interfaces.ListOptions) ([]*models.ProcessJob, error) {
	query := badgerhold.Where("WebsiteID").Eq(websiteID)
	if opts.ProcessTypeFilter != "" {
		query = query.And("ProcessType").Eq(opts.ProcessTypeFilter)
	}

	var jobs []models.ProcessJob
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list process jobs: %w", err)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})
	if opts.Limit > 0 && opts.Limit < len(jobs) {
		jobs = jobs[:opts.Limit]
	}

	result := make([]*models.ProcessJob, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}
