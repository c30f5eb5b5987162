package runner

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JingliCheng/Fireball/internal/config"
	"github.com/JingliCheng/Fireball/internal/errors"
	"github.com/JingliCheng/Fireball/internal/events"
	"github.com/JingliCheng/Fireball/internal/models"
	"github.com/JingliCheng/Fireball/internal/search"
	"github.com/JingliCheng/Fireball/internal/storage"
	"github.com/JingliCheng/Fireball/internal/telemetry"
)

var tracer = telemetry.GetTracer("fireball/runner")

// JobFetcher is the browser-driving collaborator. It owns navigation,
// page waits, and extraction; the runner only sequences its calls and
// records what comes back.
type JobFetcher interface {
	// FetchJobIDs runs the search and returns every raw id observation
	// made while paging and scrolling; duplicates are expected.
	FetchJobIDs(ctx context.Context, query search.Query) ([]string, error)

	// FetchJobInfo scrapes detail for one job id.
	FetchJobInfo(ctx context.Context, jobID string) (*models.JobInfo, error)
}

// Report summarizes one scraping run. A failed item never aborts the
// batch; it lands here instead.
type Report struct {
	Attempted int
	Succeeded int
	Failed    int
	Failures  map[string]string
}

// Runner drives the discovery and scraping cycles against the store. The
// stores assume a single writer, so the runner serializes all mutating
// work behind one mutex.
type Runner struct {
	store     *storage.Store
	fetcher   JobFetcher
	publisher events.Publisher
	logger    *zap.Logger
	config    *config.Config
	mu        sync.Mutex
}

func NewRunner(store *storage.Store, fetcher JobFetcher, publisher events.Publisher, logger *zap.Logger, cfg *config.Config) *Runner {
	return &Runner{
		store:     store,
		fetcher:   fetcher,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
	}
}

// Discover runs one search, deduplicates the observed ids, queues the
// ones not already scraped, and announces the batch. Returns the number
// of newly pending entries.
func (r *Runner) Discover(ctx context.Context, query search.Query) (int, error) {
	ctx, span := tracer.Start(ctx, "Runner.Discover")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	session := search.NewSession(query, r.logger)
	r.logger.Info("starting job discovery", zap.String("url", session.URL()))

	observations, err := r.fetcher.FetchJobIDs(ctx, query)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	session.Observe(observations...)

	ids := session.IDs()
	span.SetAttributes(
		telemetry.Int("ids.observed", len(observations)),
		telemetry.Int("ids.distinct", len(ids)),
	)

	added, err := r.store.AddDiscovered(ctx, ids, session.Metadata())
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	if err := r.publisher.PublishDiscovered(ctx, ids, session.Metadata()); err != nil {
		r.logger.Warn("discovered event not published", zap.Error(err))
	}

	r.logger.Info("job discovery complete",
		zap.Int("observed", len(observations)),
		zap.Int("distinct", len(ids)),
		zap.Int("newly_pending", added))
	return added, nil
}

// ScrapePending drains up to limit pending entries (all of them when
// limit <= 0), fetching and recording detail for each in turn. One bad
// job never aborts the batch: its failure is collected into the report
// and the run moves on. A randomized delay separates consecutive fetches.
func (r *Runner) ScrapePending(ctx context.Context, limit int) (*Report, error) {
	ctx, span := tracer.Start(ctx, "Runner.ScrapePending")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	pending := r.store.Pending()
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	span.SetAttributes(telemetry.Int("pending.count", len(pending)))

	report := &Report{Failures: make(map[string]string)}
	for i, entry := range pending {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return report, err
		}

		report.Attempted++
		if err := r.scrapeOne(ctx, entry.JobID); err != nil {
			report.Failed++
			report.Failures[entry.JobID] = err.Error()
			r.logger.Error("failed to scrape job",
				zap.String("job_id", entry.JobID),
				zap.Error(err))
		} else {
			report.Succeeded++
		}

		if i < len(pending)-1 {
			if err := r.pause(ctx); err != nil {
				span.RecordError(err)
				return report, err
			}
		}
	}

	r.logger.Info("scraping run complete",
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (r *Runner) scrapeOne(ctx context.Context, jobID string) error {
	info, err := r.fetcher.FetchJobInfo(ctx, jobID)
	if err != nil {
		return err
	}
	if info == nil {
		return errors.Internal("fetcher returned no job info for "+jobID, nil)
	}

	if err := r.store.RecordScraped(ctx, *info); err != nil {
		return err
	}

	if err := r.publisher.PublishScraped(ctx, *info); err != nil {
		r.logger.Warn("scraped event not published",
			zap.String("job_id", jobID),
			zap.Error(err))
	}
	return nil
}

// pause sleeps for a random duration inside the configured delay range.
// Spacing requests out keeps the collaborator under rate limits.
func (r *Runner) pause(ctx context.Context) error {
	min, max := r.config.ScrapeDelayMin, r.config.ScrapeDelayMax
	if max <= 0 {
		return nil
	}

	delay := min
	if max > min {
		delay += time.Duration(rand.Int63n(int64(max - min)))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
