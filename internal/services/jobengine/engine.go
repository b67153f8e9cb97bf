// Package jobengine implements the four pipeline operations that own a
// website's content lifecycle: ingestion, sync, indexing, and recovery.
package jobengine

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/common"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
)

// Engine wires the storage adapter and the two external collaborators
// (Crawler, SearchStore) behind the pipeline operations.
type Engine struct {
	storage interfaces.CorpusStorage
	crawler interfaces.Crawler
	search  interfaces.SearchStore
	config  *common.CorpusConfig
	logger  arbor.ILogger
}

// New constructs a Job Engine. crawler may be nil if the host has none
// configured; Ingest, Sync, and Recover then return a clear error instead
// of panicking, while Index (which never calls the crawler) still works.
func New(storage interfaces.CorpusStorage, crawler interfaces.Crawler, search interfaces.SearchStore, config *common.CorpusConfig, logger arbor.ILogger) *Engine {
	return &Engine{
		storage: storage,
		crawler: crawler,
		search:  search,
		config:  config,
		logger:  logger,
	}
}
