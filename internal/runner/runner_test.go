package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JingliCheng/Fireball/internal/config"
	"github.com/JingliCheng/Fireball/internal/errors"
	"github.com/JingliCheng/Fireball/internal/events"
	"github.com/JingliCheng/Fireball/internal/models"
	"github.com/JingliCheng/Fireball/internal/runner"
	"github.com/JingliCheng/Fireball/internal/search"
	"github.com/JingliCheng/Fireball/internal/storage"
)

type fetcherMock struct {
	FetchJobIDsFunc  func(ctx context.Context, query search.Query) ([]string, error)
	FetchJobInfoFunc func(ctx context.Context, jobID string) (*models.JobInfo, error)
}

func (m *fetcherMock) FetchJobIDs(ctx context.Context, query search.Query) ([]string, error) {
	return m.FetchJobIDsFunc(ctx, query)
}

func (m *fetcherMock) FetchJobInfo(ctx context.Context, jobID string) (*models.JobInfo, error) {
	return m.FetchJobInfoFunc(ctx, jobID)
}

func testConfig() *config.Config {
	return &config.Config{
		ScrapeDelayMin: 0,
		ScrapeDelayMax: 0,
	}
}

func infoFor(jobID string) *models.JobInfo {
	return &models.JobInfo{
		JobID:        jobID,
		Title:        "Engineer",
		Company:      "Test Corp",
		ApplyType:    models.ApplyTypeEasyApply,
		DiscoveredAt: time.Now().UTC(),
	}
}

func newTestRunner(t *testing.T, fetcher *fetcherMock) (*runner.Runner, *storage.Store) {
	t.Helper()
	store, err := storage.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	r := runner.NewRunner(store, fetcher, events.NopPublisher{}, zap.NewNop(), testConfig())
	return r, store
}

func TestRunner_DiscoverDeduplicatesObservations(t *testing.T) {
	fetcher := &fetcherMock{
		FetchJobIDsFunc: func(ctx context.Context, query search.Query) ([]string, error) {
			// Raw observations across scroll passes, duplicates included.
			return []string{"j1", "j2", "j1", "j3", "j2"}, nil
		},
	}
	r, store := newTestRunner(t, fetcher)

	added, err := r.Discover(context.Background(), search.Query{Keywords: []string{"go"}})
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Len(t, store.Pending(), 3)
}

func TestRunner_DiscoverSkipsAlreadyScraped(t *testing.T) {
	ctx := context.Background()
	fetcher := &fetcherMock{
		FetchJobIDsFunc: func(ctx context.Context, query search.Query) ([]string, error) {
			return []string{"j1", "j2"}, nil
		},
		FetchJobInfoFunc: func(ctx context.Context, jobID string) (*models.JobInfo, error) {
			return infoFor(jobID), nil
		},
	}
	r, store := newTestRunner(t, fetcher)

	_, err := r.Discover(ctx, search.Query{Keywords: []string{"go"}})
	require.NoError(t, err)
	_, err = r.ScrapePending(ctx, 0)
	require.NoError(t, err)

	added, err := r.Discover(ctx, search.Query{Keywords: []string{"go"}})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Empty(t, store.Pending())
}

func TestRunner_ScrapePendingRecordsEachJob(t *testing.T) {
	ctx := context.Background()
	fetcher := &fetcherMock{
		FetchJobIDsFunc: func(ctx context.Context, query search.Query) ([]string, error) {
			return []string{"j1", "j2", "j3"}, nil
		},
		FetchJobInfoFunc: func(ctx context.Context, jobID string) (*models.JobInfo, error) {
			return infoFor(jobID), nil
		},
	}
	r, store := newTestRunner(t, fetcher)

	_, err := r.Discover(ctx, search.Query{Keywords: []string{"go"}})
	require.NoError(t, err)

	report, err := r.ScrapePending(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.Failed)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{PendingCount: 0, CompletedCount: 3, DetailCount: 3}, stats)
}

func TestRunner_ScrapePendingContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	fetcher := &fetcherMock{
		FetchJobIDsFunc: func(ctx context.Context, query search.Query) ([]string, error) {
			return []string{"j1", "j2", "j3"}, nil
		},
		FetchJobInfoFunc: func(ctx context.Context, jobID string) (*models.JobInfo, error) {
			if jobID == "j2" {
				return nil, errors.Internal("page never loaded", nil)
			}
			return infoFor(jobID), nil
		},
	}
	r, store := newTestRunner(t, fetcher)

	_, err := r.Discover(ctx, search.Query{Keywords: []string{"go"}})
	require.NoError(t, err)

	report, err := r.ScrapePending(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Failures, "j2")

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{PendingCount: 1, CompletedCount: 2, DetailCount: 2}, stats)
	assert.Equal(t, "j2", store.Pending()[0].JobID)
}

func TestRunner_ScrapePendingHonorsLimit(t *testing.T) {
	ctx := context.Background()
	fetcher := &fetcherMock{
		FetchJobIDsFunc: func(ctx context.Context, query search.Query) ([]string, error) {
			return []string{"j1", "j2", "j3"}, nil
		},
		FetchJobInfoFunc: func(ctx context.Context, jobID string) (*models.JobInfo, error) {
			return infoFor(jobID), nil
		},
	}
	r, store := newTestRunner(t, fetcher)

	_, err := r.Discover(ctx, search.Query{Keywords: []string{"go"}})
	require.NoError(t, err)

	report, err := r.ScrapePending(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Len(t, store.Pending(), 2)
}

func TestRunner_ScrapePendingStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fetcherMock{
		FetchJobIDsFunc: func(ctx context.Context, query search.Query) ([]string, error) {
			return []string{"j1", "j2"}, nil
		},
		FetchJobInfoFunc: func(ctx context.Context, jobID string) (*models.JobInfo, error) {
			cancel()
			return infoFor(jobID), nil
		},
	}
	r, _ := newTestRunner(t, fetcher)

	_, err := r.Discover(ctx, search.Query{Keywords: []string{"go"}})
	require.NoError(t, err)

	report, err := r.ScrapePending(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, report.Succeeded)
}
