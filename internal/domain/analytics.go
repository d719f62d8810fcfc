package domain

import "time"

// TrackedEvent is the analytics row written to ClickHouse by the tracking
// handler after an event is processed.
type TrackedEvent struct {
	EventID     string    `ch:"event_id"`
	ProjectID   string    `ch:"project_id"`
	UserID      string    `ch:"user_id"`
	EventType   string    `ch:"event_type"`
	Timestamp   int64     `ch:"timestamp"`
	Properties  string    `ch:"properties"`
	Status      string    `ch:"status"`
	ProcessedAt time.Time `ch:"processed_at"`
}
