package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/domain"
	"github.com/perkforge/loyalty-engine/internal/metrics"
	"github.com/perkforge/loyalty-engine/internal/queue"
	"github.com/perkforge/loyalty-engine/internal/repository"
)

// SweeperConfig configures the stuck-event recovery job
type SweeperConfig struct {
	Interval   time.Duration
	StuckAfter time.Duration
	BatchSize  int
}

// Sweeper republishes events that were durably recorded but never finished
// processing. A crash between the database write and the queue ack leaves a
// pending row; republishing it restores at-least-once delivery.
type Sweeper struct {
	events    repository.EventRepository
	publisher queue.Publisher
	config    SweeperConfig
	log       *zap.Logger
}

// NewSweeper creates a sweeper.
func NewSweeper(events repository.EventRepository, publisher queue.Publisher, config SweeperConfig, log *zap.Logger) *Sweeper {
	return &Sweeper{
		events:    events,
		publisher: publisher,
		config:    config,
		log:       log,
	}
}

// Run sweeps once immediately and then on the configured interval until the
// context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Sweeper shutting down")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep republishes one batch of stuck pending events. Individual publish
// failures are logged and counted; the batch continues.
func (s *Sweeper) Sweep(ctx context.Context) {
	events, err := s.events.FindStuckPendingEvents(ctx, s.config.StuckAfter, s.config.BatchSize)
	if err != nil {
		s.log.Error("Failed to query stuck events", zap.Error(err))
		return
	}
	if len(events) == 0 {
		return
	}

	s.log.Info("Sweeping stuck events", zap.Int("count", len(events)))

	republished := 0
	for i := range events {
		event := &events[i]
		if err := s.publisher.PublishEvent(ctx, republishMessage(event), event.ID.String()); err != nil {
			s.log.Warn("Failed to republish stuck event",
				zap.String("event_id", event.ID.String()),
				zap.Error(err))
			continue
		}
		republished++
		metrics.EventsSwept.Inc()
	}

	s.log.Info("Sweep finished",
		zap.Int("republished", republished),
		zap.Int("failed", len(events)-republished))
}

// republishMessage rebuilds a bus message from the persisted row. It carries
// the row id so the consumer completes this row rather than inserting a new
// one. The receivedAt field is the original receipt time, not the republish
// time; a best-effort approximation of the lost original message.
func republishMessage(event *domain.Event) *domain.RawEventMessage {
	return &domain.RawEventMessage{
		EventID:    event.ID.String(),
		ProjectID:  event.ProjectID,
		UserID:     event.UserID,
		Event:      event.EventType,
		Properties: event.Properties,
		Timestamp:  event.Timestamp.Unix(),
		ReceivedAt: event.ReceivedAt.Unix(),
	}
}
