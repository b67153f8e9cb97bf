package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// WebsiteStorage implements interfaces.WebsiteStore for Badger.
type WebsiteStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewWebsiteStorage(db *BadgerDB, logger arbor.ILogger) interfaces.WebsiteStore {
	return &WebsiteStorage{db: db, logger: logger}
}

func (s *WebsiteStorage) CreateWebsite(ctx context.Context, w *models.Website) error {
	if w.ID == "" {
		return fmt.Errorf("website ID is required")
	}

	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	if err := s.db.Store().Insert(w.ID, w); err != nil {
		return fmt.Errorf("failed to create website: %w", err)
	}
	return nil
}

func (s *WebsiteStorage) GetWebsite(ctx context.Context, id string) (*models.Website, error) {
	var w models.Website
	if err := s.db.Store().Get(id, &w); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("website not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get website: %w", err)
	}
	return &w, nil
}

func (s *WebsiteStorage) GetWebsiteByBaseDomain(ctx context.Context, baseDomain string) (*models.Website, error) {
	var sites []models.Website
	err := s.db.Store().Find(&sites, badgerhold.Where("BaseDomain").Eq(baseDomain).Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to find website: %w", err)
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("website not found for base domain: %s", baseDomain)
	}
	return &sites[0], nil
}

func (s *WebsiteStorage) UpdateWebsite(ctx context.Context, w *models.Website) error {
	w.UpdatedAt = time.Now().UTC()
	if err := s.db.Store().Update(w.ID, w); err != nil {
		return fmt.Errorf("failed to update website: %w", err)
	}
	return nil
}

func (s *WebsiteStorage) ListWebsites(ctx context.Context) ([]*models.Website, error) {
	var sites []models.Website
	if err := s.db.Store().Find(&sites, badgerhold.Where("Deleted").Eq(false)); err != nil {
		return nil, fmt.Errorf("failed to list websites: %w", err)
	}

	result := make([]*models.Website, len(sites))
	for i := range sites {
		result[i] = &sites[i]
	}
	return result, nil
}

func (s *WebsiteStorage) SoftDeleteWebsite(ctx context.Context, id string) error {
	w, err := s.GetWebsite(ctx, id)
	if err != nil {
		return err
	}
	w.Deleted = true
	return s.UpdateWebsite(ctx, w)
}
