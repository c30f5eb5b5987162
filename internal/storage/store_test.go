package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JingliCheng/Fireball/internal/models"
	"github.com/JingliCheng/Fireball/internal/storage"
)

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestStore_DiscoveryAndScrapeScenario(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	meta := models.SearchMetadata{Keywords: []string{"python"}, Location: "US"}

	added, err := store.AddDiscovered(ctx, []string{"j1", "j2", "j3"}, meta)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{PendingCount: 3, CompletedCount: 0, DetailCount: 0}, stats)

	require.NoError(t, store.RecordScraped(ctx, models.JobInfo{JobID: "j1", Title: "Eng"}))

	after, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{PendingCount: 2, CompletedCount: 1, DetailCount: 1}, after)

	diff, err := store.Diff(stats)
	require.NoError(t, err)
	assert.Equal(t, storage.StatsDiff{Pending: -1, Completed: 1, Detail: 1}, diff)
}

func TestStore_RecordScrapedWithoutPendingEntry(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// Out-of-band scrape: queue never heard of this job, the detail
	// append still stands.
	require.NoError(t, store.RecordScraped(ctx, models.JobInfo{JobID: "stray", Title: "Eng"}))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{PendingCount: 0, CompletedCount: 0, DetailCount: 1}, stats)

	detail, err := store.Detail("stray")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "Eng", detail.Title)
}

func TestStore_RecordScrapedTwiceForSameJob(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	meta := models.SearchMetadata{Keywords: []string{"python"}}

	_, err := store.AddDiscovered(ctx, []string{"j1"}, meta)
	require.NoError(t, err)

	require.NoError(t, store.RecordScraped(ctx, models.JobInfo{JobID: "j1", Title: "Eng"}))
	require.NoError(t, store.RecordScraped(ctx, models.JobInfo{JobID: "j1", Title: "Eng (updated)"}))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{PendingCount: 0, CompletedCount: 1, DetailCount: 2}, stats)

	detail, err := store.Detail("j1")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "Eng (updated)", detail.Title)
}

func TestStore_MetadataLookup(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	meta := models.SearchMetadata{Keywords: []string{"go"}, Location: "Remote"}

	_, err := store.AddDiscovered(ctx, []string{"j1"}, meta)
	require.NoError(t, err)

	got := store.Metadata("j1")
	require.NotNil(t, got)
	assert.Equal(t, meta.Keywords, got.Keywords)
	assert.Equal(t, meta.Location, got.Location)

	require.NoError(t, store.RecordScraped(ctx, models.JobInfo{JobID: "j1", Title: "Eng"}))

	// Still resolvable after the move to scraped.
	got = store.Metadata("j1")
	require.NotNil(t, got)
	assert.Equal(t, meta.Keywords, got.Keywords)

	assert.Nil(t, store.Metadata("unknown"))
}
