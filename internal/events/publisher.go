package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/JingliCheng/Fireball/internal/config"
	"github.com/JingliCheng/Fireball/internal/errors"
	"github.com/JingliCheng/Fireball/internal/models"
	"github.com/JingliCheng/Fireball/internal/telemetry"
)

var tracer = telemetry.GetTracer("fireball/events")

const (
	JobsDiscoveredSubject = "jobs.discovered"
	JobsScrapedSubject    = "jobs.scraped"
)

// DiscoveredEvent announces a batch of newly observed job ids together
// with the search that produced them.
type DiscoveredEvent struct {
	JobIDs         []string              `json:"job_ids"`
	SearchMetadata models.SearchMetadata `json:"search_metadata"`
	ObservedAt     time.Time             `json:"observed_at"`
}

// Publisher lets downstream consumers follow the pipeline. Publishing is
// best-effort from the caller's point of view: failures are returned for
// logging but never abort a run.
type Publisher interface {
	PublishDiscovered(ctx context.Context, ids []string, meta models.SearchMetadata) error
	PublishScraped(ctx context.Context, info models.JobInfo) error
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewPublisher connects to NATS when a URL is configured and returns a
// no-op publisher otherwise, so callers never branch on configuration.
func NewPublisher(logger *zap.Logger, cfg *config.Config) (Publisher, error) {
	if cfg.NATSURL == "" {
		logger.Info("no NATS URL configured, event publishing disabled")
		return NopPublisher{}, nil
	}

	opts := []nats.Option{
		nats.Timeout(cfg.NATSConnTimeout),
		nats.Name("fireball"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	}
	conn, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, errors.Internal("connecting to NATS", err)
	}

	return &natsPublisher{conn: conn, logger: logger}, nil
}

func (p *natsPublisher) PublishDiscovered(ctx context.Context, ids []string, meta models.SearchMetadata) error {
	_, span := tracer.Start(ctx, "PublishDiscovered")
	defer span.End()

	event := DiscoveredEvent{
		JobIDs:         ids,
		SearchMetadata: meta,
		ObservedAt:     time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling discovered event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", JobsDiscoveredSubject),
		telemetry.Int("ids.count", len(ids)),
	)

	if err := p.conn.Publish(JobsDiscoveredSubject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish discovered event",
			zap.Int("ids", len(ids)),
			zap.Error(err))
		return errors.Internal("publishing discovered event", err)
	}

	p.logger.Debug("published discovered event",
		zap.String("subject", JobsDiscoveredSubject),
		zap.Int("ids", len(ids)))
	return nil
}

func (p *natsPublisher) PublishScraped(ctx context.Context, info models.JobInfo) error {
	_, span := tracer.Start(ctx, "PublishScraped")
	defer span.End()

	data, err := json.Marshal(info)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling scraped event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", JobsScrapedSubject),
		telemetry.String("job_id", info.JobID),
	)

	if err := p.conn.Publish(JobsScrapedSubject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish scraped event",
			zap.String("job_id", info.JobID),
			zap.Error(err))
		return errors.Internal("publishing scraped event", err)
	}

	p.logger.Debug("published scraped event",
		zap.String("subject", JobsScrapedSubject),
		zap.String("job_id", info.JobID))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishDiscovered(context.Context, []string, models.SearchMetadata) error {
	return nil
}

func (NopPublisher) PublishScraped(context.Context, models.JobInfo) error {
	return nil
}

func (NopPublisher) Close() {}
