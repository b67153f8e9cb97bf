package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/common"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
)

// Manager implements interfaces.CorpusStorage on top of a single BadgerDB
// handle shared by the three typed adapters. The adapters are embedded so
// their methods promote directly onto Manager.
type Manager struct {
	db *BadgerDB
	interfaces.WebsiteStore
	interfaces.PageStore
	interfaces.ProcessJobStore
	logger arbor.ILogger
}

// NewManager opens a Badger database and wires the typed storage adapters.
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.CorpusStorage, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:              db,
		WebsiteStore:    NewWebsiteStorage(db, logger),
		PageStore:       NewPageStorage(db, logger),
		ProcessJobStore: NewProcessJobStorage(db, logger),
		logger:          logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
