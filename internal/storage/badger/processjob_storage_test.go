package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
)

func TestProcessJobStorage_CreateGetUpdate(t *testing.T) {
	db := newTestDB(t)
	store := NewProcessJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := models.NewProcessJob("job-1", "web-1", models.ProcessTypeIngestion)
	require.NoError(t, store.CreateProcessJob(ctx, job))

	job.URLsDiscovered = 42
	require.NoError(t, store.UpdateProcessJob(ctx, job))

	fetched, err := store.GetProcessJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 42, fetched.URLsDiscovered)
}

func TestProcessJobStorage_ListProcessJobsByWebsiteFiltersByProcessType(t *testing.T) {
	db := newTestDB(t)
	store := NewProcessJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	ingest1 := models.NewProcessJob("job-1", "web-1", models.ProcessTypeIngestion)
	sync1 := models.NewProcessJob("job-2", "web-1", models.ProcessTypeSync)
	ingest2 := models.NewProcessJob("job-3", "web-1", models.ProcessTypeIngestion)
	require.NoError(t, store.CreateProcessJob(ctx, ingest1))
	require.NoError(t, store.CreateProcessJob(ctx, sync1))
	require.NoError(t, store.CreateProcessJob(ctx, ingest2))

	jobs, err := store.ListProcessJobsByWebsite(ctx, "web-1", interfaces.ListOptions{ProcessTypeFilter: models.ProcessTypeIngestion})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	for _, j := range jobs {
		assert.Equal(t, models.ProcessTypeIngestion, j.ProcessType)
	}
}
