package jobengine

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/common"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/services/jobengine/jobenginetest"
	"github.com/ternarybob/sitecorpus/internal/storage/badger"
)

// testConfig uses near-zero suspension durations so the engine's timing
// constants don't slow the unit tests down.
func testConfig() *common.CorpusConfig {
	return &common.CorpusConfig{
		DeletionMissingThreshold: 3,
		RecoveryStuckAfter:       time.Hour,
		BatchPollInterval:        time.Millisecond,
		BatchMaxWait:             time.Second,
		ProgressWriteInterval:    time.Millisecond,
		UploadConcurrency:        5,
		UploadRetryBackoff:       time.Millisecond,
		UploadMaxRetries:         3,
		VerificationDelay:        time.Millisecond,
		OperationPollInterval:    time.Millisecond,
		OperationMaxWait:         time.Second,
		InterBatchPause:          time.Millisecond,
		IndexingPageCap:          200,
	}
}

func newTestEngine(t *testing.T) (*Engine, interfaces.CorpusStorage, *jobenginetest.FakeCrawler, *jobenginetest.FakeSearchStore) {
	t.Helper()
	dir, err := os.MkdirTemp("", "sitecorpus-jobengine-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	logger := arbor.NewLogger()
	storage, err := badger.NewManager(logger, &common.BadgerConfig{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	crawler := jobenginetest.NewFakeCrawler()
	search := jobenginetest.NewFakeSearchStore()
	engine := New(storage, crawler, search, testConfig(), logger)
	return engine, storage, crawler, search
}
