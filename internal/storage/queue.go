package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/JingliCheng/Fireball/internal/errors"
	"github.com/JingliCheng/Fireball/internal/models"
)

const QueueFileName = "job_ids.json"

// QueueStore owns the two-partition scrape queue mirrored to job_ids.json.
// Construction is an explicit load-or-default; every mutation rewrites the
// whole aggregate through a temp file and an atomic rename, so a crash
// mid-write leaves the previous state intact.
//
// The store itself performs no locking; callers that mutate it from more
// than one goroutine must serialize access (the runner does).
type QueueStore struct {
	path   string
	state  *models.ScrapeState
	logger *zap.Logger
}

func NewQueueStore(dir string, logger *zap.Logger) (*QueueStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Internal("creating storage directory", err)
	}

	s := &QueueStore{
		path:   filepath.Join(dir, QueueFileName),
		logger: logger,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *QueueStore) Path() string {
	return s.path
}

// Reload replaces the in-memory aggregate with the file's contents,
// creating an empty queue file when none exists yet. Data that does not
// conform to the queue shape fails the load outright; silently dropping
// entries could put an id in both partitions.
func (s *QueueStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.state = models.NewScrapeState()
		return s.persist()
	}
	if err != nil {
		return errors.Internal("reading queue file", err)
	}

	state := &models.ScrapeState{}
	if err := json.Unmarshal(data, state); err != nil {
		return errors.MalformedState("queue file does not match the expected shape", err)
	}
	if state.ToScrape == nil {
		state.ToScrape = []models.QueueEntry{}
	}
	if state.Scraped == nil {
		state.Scraped = []models.QueueEntry{}
	}
	s.state = state

	s.logger.Debug("loaded scrape queue",
		zap.String("path", s.path),
		zap.Int("to_scrape", len(state.ToScrape)),
		zap.Int("scraped", len(state.Scraped)))
	return nil
}

func (s *QueueStore) persist() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return errors.Internal("marshaling queue state", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Internal("writing queue temp file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Internal("replacing queue file", err)
	}
	return nil
}

// AddPending queues every id that has not been scraped already. Ids
// already pending get their search metadata overwritten with the newly
// supplied one: a rerun of a search against an unscraped job updates its
// provenance. Ids in the scraped partition are skipped silently.
//
// Returns how many entries were created and how many existing pending
// entries were updated.
func (s *QueueStore) AddPending(ids []string, meta models.SearchMetadata) (added, updated int, err error) {
	now := time.Now().UTC()

	scraped := make(map[string]struct{}, len(s.state.Scraped))
	for _, entry := range s.state.Scraped {
		scraped[entry.JobID] = struct{}{}
	}
	pendingIdx := make(map[string]int, len(s.state.ToScrape))
	for i, entry := range s.state.ToScrape {
		pendingIdx[entry.JobID] = i
	}

	for _, id := range ids {
		if _, done := scraped[id]; done {
			continue
		}
		if i, ok := pendingIdx[id]; ok {
			s.state.ToScrape[i].SearchMetadata = meta
			s.state.ToScrape[i].LastUpdated = now
			updated++
			continue
		}
		s.state.ToScrape = append(s.state.ToScrape, models.QueueEntry{
			JobID:          id,
			SearchMetadata: meta,
			AddedAt:        now,
			LastUpdated:    now,
		})
		pendingIdx[id] = len(s.state.ToScrape) - 1
		added++
	}

	s.state.LastUpdated = now
	if err := s.persist(); err != nil {
		return 0, 0, err
	}
	return added, updated, nil
}

// MarkScraped moves the pending entry for id into the scraped partition
// and returns it. A nil entry means no pending entry matched, which is a
// soft condition: the id was never discovered, or was already scraped.
func (s *QueueStore) MarkScraped(id string) (*models.QueueEntry, error) {
	for i, entry := range s.state.ToScrape {
		if entry.JobID != id {
			continue
		}

		now := time.Now().UTC()
		entry.LastUpdated = now
		s.state.ToScrape = append(s.state.ToScrape[:i], s.state.ToScrape[i+1:]...)
		s.state.Scraped = append(s.state.Scraped, entry)
		s.state.LastUpdated = now

		if err := s.persist(); err != nil {
			return nil, err
		}
		moved := entry
		return &moved, nil
	}

	s.logger.Debug("no pending entry to mark scraped", zap.String("job_id", id))
	return nil, nil
}

// Pending returns a snapshot of the to_scrape partition in queue order.
func (s *QueueStore) Pending() []models.QueueEntry {
	out := make([]models.QueueEntry, len(s.state.ToScrape))
	copy(out, s.state.ToScrape)
	return out
}

// Completed returns a snapshot of the scraped partition in completion order.
func (s *QueueStore) Completed() []models.QueueEntry {
	out := make([]models.QueueEntry, len(s.state.Scraped))
	copy(out, s.state.Scraped)
	return out
}

// MetadataFor looks an id up across both partitions, pending first, and
// returns nil when the id is unknown.
func (s *QueueStore) MetadataFor(id string) *models.SearchMetadata {
	for _, entry := range s.state.ToScrape {
		if entry.JobID == id {
			meta := entry.SearchMetadata
			return &meta
		}
	}
	for _, entry := range s.state.Scraped {
		if entry.JobID == id {
			meta := entry.SearchMetadata
			return &meta
		}
	}
	return nil
}
