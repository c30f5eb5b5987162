package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/JingliCheng/Fireball/internal/models"
	"github.com/JingliCheng/Fireball/internal/telemetry"
)

var tracer = telemetry.GetTracer("fireball/storage")

// Stats is a point-in-time summary of both stores.
type Stats struct {
	PendingCount   int `json:"pending_count"`
	CompletedCount int `json:"completed_count"`
	DetailCount    int `json:"detail_count"`
}

// StatsDiff holds signed differences between two Stats snapshots.
type StatsDiff struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Detail    int `json:"detail"`
}

// Store composes the scrape queue and the detail log behind the
// operations the discovery and scraping collaborators use. The detail
// log is authoritative for what is known; the queue is authoritative for
// what remains to do.
type Store struct {
	queue   *QueueStore
	details *DetailLog
	logger  *zap.Logger
}

func New(dir string, logger *zap.Logger) (*Store, error) {
	queue, err := NewQueueStore(dir, logger)
	if err != nil {
		return nil, err
	}
	details, err := NewDetailLog(dir, logger)
	if err != nil {
		return nil, err
	}
	return &Store{
		queue:   queue,
		details: details,
		logger:  logger,
	}, nil
}

// AddDiscovered queues a batch of discovered ids with the search that
// produced them and returns how many entries are newly pending.
func (s *Store) AddDiscovered(ctx context.Context, ids []string, meta models.SearchMetadata) (int, error) {
	_, span := tracer.Start(ctx, "Store.AddDiscovered")
	defer span.End()
	span.SetAttributes(telemetry.Int("ids.count", len(ids)))

	added, updated, err := s.queue.AddPending(ids, meta)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	s.logger.Info("recorded discovered job ids",
		zap.Int("observed", len(ids)),
		zap.Int("added", added),
		zap.Int("updated", updated))
	return added, nil
}

// RecordScraped appends the detail record, then moves the matching queue
// entry to scraped. The append stands even when no pending entry matches;
// out-of-band scrapes are knowledge the queue simply never tracked.
func (s *Store) RecordScraped(ctx context.Context, info models.JobInfo) error {
	_, span := tracer.Start(ctx, "Store.RecordScraped")
	defer span.End()
	span.SetAttributes(telemetry.String("job_id", info.JobID))

	if err := s.details.Append(info); err != nil {
		span.RecordError(err)
		return err
	}

	entry, err := s.queue.MarkScraped(info.JobID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if entry == nil {
		s.logger.Debug("scraped job had no pending entry", zap.String("job_id", info.JobID))
	}

	s.logger.Info("recorded scraped job",
		zap.String("job_id", info.JobID),
		zap.String("company", info.Company))
	return nil
}

func (s *Store) Pending() []models.QueueEntry {
	return s.queue.Pending()
}

func (s *Store) Completed() []models.QueueEntry {
	return s.queue.Completed()
}

func (s *Store) Metadata(id string) *models.SearchMetadata {
	return s.queue.MetadataFor(id)
}

func (s *Store) Detail(id string) (*models.JobInfo, error) {
	return s.details.Get(id)
}

func (s *Store) Stats() (Stats, error) {
	detailCount, err := s.details.Count()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		PendingCount:   len(s.queue.Pending()),
		CompletedCount: len(s.queue.Completed()),
		DetailCount:    detailCount,
	}, nil
}

// Diff reports how the stores changed since a previously captured Stats
// snapshot, typically around one scraping run.
func (s *Store) Diff(before Stats) (StatsDiff, error) {
	current, err := s.Stats()
	if err != nil {
		return StatsDiff{}, err
	}
	return StatsDiff{
		Pending:   current.PendingCount - before.PendingCount,
		Completed: current.CompletedCount - before.CompletedCount,
		Detail:    current.DetailCount - before.DetailCount,
	}, nil
}
