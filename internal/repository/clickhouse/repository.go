package clickhouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

// Repository implements repository.AnalyticsRepository for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse analytics repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the tracked_events table if it does not exist
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS tracked_events (
		event_id String,
		project_id LowCardinality(String),
		user_id String,
		event_type LowCardinality(String),
		timestamp Int64,
		properties String,
		status LowCardinality(String),
		processed_at DateTime64(3) DEFAULT now64(3)
	) ENGINE = MergeTree()
	ORDER BY (project_id, event_type, timestamp)
	PARTITION BY toYYYYMM(toDateTime(timestamp))
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create tracked_events table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized")
	return nil
}

// InsertBatch inserts a batch of tracked events
func (r *Repository) InsertBatch(ctx context.Context, events []*domain.TrackedEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO tracked_events")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	inserted := 0
	for _, event := range events {
		properties := event.Properties
		if properties == "" {
			properties = "{}"
		}

		err := batch.Append(
			event.EventID,
			event.ProjectID,
			event.UserID,
			event.EventType,
			event.Timestamp,
			properties,
			event.Status,
			event.ProcessedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append event to batch: %w", err)
		}
		inserted++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return inserted, nil
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the underlying client
func (r *Repository) Close() error {
	return r.client.Close()
}
