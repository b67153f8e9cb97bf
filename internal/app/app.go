// -----------------------------------------------------------------------
// Last Modified: Wednesday, 5th November 2025 8:17:54 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitecorpus/internal/common"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/services/jobengine"
	"github.com/ternarybob/sitecorpus/internal/services/queryfacade"
	"github.com/ternarybob/sitecorpus/internal/services/searchstore/gemini"
	"github.com/ternarybob/sitecorpus/internal/storage/badger"
)

// App holds all application components and dependencies. It is the
// composition root: the four Job Engine operations and the five Query
// Facade operations are exposed as library calls through Engine/Facade,
// with no HTTP surface.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Storage interfaces.CorpusStorage
	Search  interfaces.SearchStore
	Crawler interfaces.Crawler

	Engine *jobengine.Engine
	Facade *queryfacade.Facade
}

// New initializes the application with all dependencies. crawler is
// supplied by the host: no production Crawler implementation (Firecrawl
// or otherwise) ships in this module, only the interfaces.Crawler contract
// and the in-memory test fake under jobengine/jobenginetest.
func New(cfg *common.Config, logger arbor.ILogger, crawler interfaces.Crawler) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Crawler: crawler,
	}

	storage, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Storage = storage
	logger.Info().Str("path", cfg.Storage.Badger.Path).Msg("badger storage initialized")

	search, err := gemini.New(&cfg.Gemini, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search store: %w", err)
	}
	a.Search = search
	logger.Info().Str("model", cfg.Gemini.Model).Msg("gemini search store initialized")

	a.Engine = jobengine.New(a.Storage, a.Crawler, a.Search, &cfg.Corpus, logger)
	a.Facade = queryfacade.New(a.Storage, a.Search, logger)

	logger.Info().Msg("application initialization complete")
	return a, nil
}

// Close releases storage resources. The search store and crawler are
// stateless HTTP clients and need no explicit shutdown.
func (a *App) Close() error {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("storage closed")
	}
	return nil
}
