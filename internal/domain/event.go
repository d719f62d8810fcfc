package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Event status values. A pending row flips to exactly one terminal state.
const (
	EventStatusPending   = "pending"
	EventStatusProcessed = "processed"
	EventStatusFailed    = "failed"
)

// Well-known event types consumed by the worker.
const (
	EventUserSignup        = "user.signup"
	EventReferralConverted = "referral.converted"
	EventCommissionCreated = "commission.created"
	EventOrderCompleted    = "order.completed"
	EventCheckoutStarted   = "checkout.started"
	EventUserLeveledUp     = "user.leveled_up"
)

// Event is a business event persisted by the dispatcher before any handler
// runs. Immutable once created except for the status transition.
type Event struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    string            `gorm:"column:project_id;not null;index:idx_events_project" json:"project_id"`
	UserID       string            `gorm:"column:user_id" json:"user_id,omitempty"`
	EventType    string            `gorm:"column:event_type;not null" json:"event_type"`
	Properties   datatypes.JSONMap `gorm:"column:properties;type:jsonb" json:"properties"`
	Timestamp    time.Time         `gorm:"column:timestamp;not null" json:"timestamp"`
	ReceivedAt   time.Time         `gorm:"column:received_at;not null" json:"received_at"`
	Status       string            `gorm:"column:status;not null;default:'pending';index:idx_events_status" json:"status"`
	ErrorMessage string            `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Event) TableName() string { return "events" }

// RawEventMessage is the bus payload on the events.raw topic. The queue key
// is the project id, which doubles as the partition key. EventID is set only
// on republished messages and references the already-persisted row, so the
// consumer completes that row instead of inserting a duplicate.
type RawEventMessage struct {
	EventID    string         `json:"eventId,omitempty"`
	ProjectID  string         `json:"projectId"`
	UserID     string         `json:"userId,omitempty"`
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  int64          `json:"timestamp"`
	ReceivedAt int64          `json:"receivedAt"`
}
