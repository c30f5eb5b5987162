package search

import (
	"go.uber.org/zap"

	"github.com/JingliCheng/Fireball/internal/dedup"
	"github.com/JingliCheng/Fireball/internal/models"
)

// Session accumulates the job ids observed during one search. The result
// page surfaces overlapping id sets on every scroll pass; Observe feeds
// each pass through the deduplicator and reports how many ids were new,
// which drives progress logging.
type Session struct {
	query  Query
	meta   models.SearchMetadata
	acc    *dedup.Accumulator
	passes int
	logger *zap.Logger
}

func NewSession(query Query, logger *zap.Logger) *Session {
	return &Session{
		query:  query,
		meta:   query.Metadata(),
		acc:    dedup.NewAccumulator(),
		logger: logger,
	}
}

// Observe records one scroll pass worth of raw id observations and
// returns the number of ids not seen earlier in the session.
func (s *Session) Observe(ids ...string) int {
	fresh := s.acc.Add(ids...)
	s.passes++

	s.logger.Debug("observed search results pass",
		zap.Int("pass", s.passes),
		zap.Int("observed", len(ids)),
		zap.Int("new", len(fresh)),
		zap.Int("total", s.acc.Len()))
	return len(fresh)
}

// IDs returns every distinct id collected so far, in first-seen order.
func (s *Session) IDs() []string {
	return s.acc.IDs()
}

// Metadata returns the provenance stamped when the session began; every
// id this session discovers shares it.
func (s *Session) Metadata() models.SearchMetadata {
	return s.meta
}

func (s *Session) URL() string {
	return BuildURL(s.query)
}
