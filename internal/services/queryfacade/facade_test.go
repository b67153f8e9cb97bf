package queryfacade

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitecorpus/internal/common"
	"github.com/ternarybob/sitecorpus/internal/interfaces"
	"github.com/ternarybob/sitecorpus/internal/models"
	"github.com/ternarybob/sitecorpus/internal/services/jobengine/jobenginetest"
	"github.com/ternarybob/sitecorpus/internal/storage/badger"
)

func newTestFacade(t *testing.T) (*Facade, interfaces.CorpusStorage, *jobenginetest.FakeSearchStore) {
	t.Helper()
	dir, err := os.MkdirTemp("", "sitecorpus-queryfacade-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	logger := arbor.NewLogger()
	storage, err := badger.NewManager(logger, &common.BadgerConfig{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	search := jobenginetest.NewFakeSearchStore()
	return New(storage, search, logger), storage, search
}

func seedIndexedWebsite(t *testing.T, ctx context.Context, storage interfaces.CorpusStorage, search *jobenginetest.FakeSearchStore) *models.Website {
	t.Helper()
	store, err := search.CreateStore(ctx, "example")
	require.NoError(t, err)
	website := &models.Website{ID: "web-1", SeedURL: "https://www.example.com/", BaseDomain: "example.com", SearchStoreID: store.Name}
	require.NoError(t, storage.CreateWebsite(ctx, website))
	_, err = search.Upload(ctx, store.Name, "content", interfaces.UploadMetadata{URL: "https://www.example.com/"})
	require.NoError(t, err)
	return website
}

func TestAsk_ResolvesBareDomainAndReturnsCitation(t *testing.T) {
	facade, storage, search := newTestFacade(t)
	ctx := context.Background()
	seedIndexedWebsite(t, ctx, storage, search)

	result, err := facade.Ask(ctx, "What is this site about?", "www.example.com")
	require.NoError(t, err)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "https://www.example.com/", result.Citations[0].URL)
}

func TestAsk_UnindexedDomainReturnsDistinctError(t *testing.T) {
	facade, _, _ := newTestFacade(t)

	_, err := facade.Ask(context.Background(), "question", "unknown.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ingested")
}

func TestAsk_IngestedButNotIndexedReturnsDistinctError(t *testing.T) {
	facade, storage, _ := newTestFacade(t)
	ctx := context.Background()
	require.NoError(t, storage.CreateWebsite(ctx, &models.Website{ID: "web-1", BaseDomain: "example.com"}))

	_, err := facade.Ask(ctx, "question", "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not yet indexed")
}

func TestAsk_RejectsEmptyAndOversizedQuestions(t *testing.T) {
	facade, _, _ := newTestFacade(t)
	ctx := context.Background()

	_, err := facade.Ask(ctx, "   ", "example.com")
	assert.Error(t, err)

	_, err = facade.Ask(ctx, strings.Repeat("a", maxQuestionLength+1), "example.com")
	assert.Error(t, err)
}

func TestSearchWithFilter_AppliesPathPrefixMetadataFilter(t *testing.T) {
	facade, storage, search := newTestFacade(t)
	ctx := context.Background()
	seedIndexedWebsite(t, ctx, storage, search)

	result, err := facade.SearchWithFilter(ctx, "question", "example.com", "/docs")
	require.NoError(t, err)
	// the fake search store returns no chunks once a metadata filter is set
	assert.Empty(t, result.Citations)
}

func TestSummarizeTopicAndFindMentions_ComposeAroundAsk(t *testing.T) {
	facade, storage, search := newTestFacade(t)
	ctx := context.Background()
	seedIndexedWebsite(t, ctx, storage, search)

	_, err := facade.SummarizeTopic(ctx, "pricing", "example.com")
	require.NoError(t, err)

	_, err = facade.FindMentions(ctx, []string{"pricing", "plans"}, "example.com")
	require.NoError(t, err)
}
