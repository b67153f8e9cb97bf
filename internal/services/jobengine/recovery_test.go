package jobengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
)

func TestRecover_NoOpWhenJobNotRunning(t *testing.T) {
	engine, storage, crawler, _ := newTestEngine(t)
	ctx := context.Background()

	crawler.Links = []string{"https://example.com/"}
	crawler.Pages["https://example.com/"] = "# Home\ncontent"
	ingestResult, err := engine.Ingest(ctx, IngestInput{SeedURL: "https://example.com/"})
	require.NoError(t, err)

	job, err := storage.GetProcessJob(ctx, ingestResult.IngestionJobID)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusCompleted, job.Status)

	recovery, err := engine.Recover(ctx, ingestResult.IngestionJobID)
	require.NoError(t, err)
	assert.False(t, recovery.Recovered)
	assert.Equal(t, RecoveryCompleted, recovery.Status)
}

func TestRecover_CompletesFromFinishedBatchWhenJobStillMarkedRunning(t *testing.T) {
	engine, storage, crawler, _ := newTestEngine(t)
	ctx := context.Background()

	website := &models.Website{ID: "web-1", SeedURL: "https://example.com/", BaseDomain: "example.com", SearchStoreID: "store-1"}
	require.NoError(t, storage.CreateWebsite(ctx, website))

	job := models.NewProcessJob("job-1", website.ID, models.ProcessTypeIngestion)
	job.URLsDiscovered = 1
	require.NoError(t, storage.CreateProcessJob(ctx, job))

	crawler.Pages["https://example.com/"] = "# Home\ncontent"
	batchID, err := crawler.BatchStart(ctx, []string{"https://example.com/"}, interfaces.ScrapeOptions{})
	require.NoError(t, err)
	job.FirecrawlBatchIDs = append(job.FirecrawlBatchIDs, batchID)
	require.NoError(t, storage.UpdateProcessJob(ctx, job))

	recovery, err := engine.Recover(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, recovery.Recovered)
	assert.Equal(t, RecoveryCompleted, recovery.Status)
	require.NotNil(t, recovery.Result)
	assert.Equal(t, 1, recovery.Result.PagesWritten)

	finalJob, err := storage.GetProcessJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, finalJob.Status)
}

func TestRecover_FailsWhenNoBatchIDRecorded(t *testing.T) {
	engine, storage, _, _ := newTestEngine(t)
	ctx := context.Background()

	website := &models.Website{ID: "web-1", SeedURL: "https://example.com/", BaseDomain: "example.com"}
	require.NoError(t, storage.CreateWebsite(ctx, website))
	job := models.NewProcessJob("job-1", website.ID, models.ProcessTypeIngestion)
	require.NoError(t, storage.CreateProcessJob(ctx, job))

	recovery, err := engine.Recover(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, RecoveryCannotRecover, recovery.Status)

	finalJob, err := storage.GetProcessJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, finalJob.Status)
}
