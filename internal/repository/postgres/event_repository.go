package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = domain.EventStatusPending
	}

	return r.DB.WithContext(ctx).Create(event).Error
}

func (r *EventRepository) MarkAsProcessed(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).
		Model(&domain.Event{}).
		Where("id = ? AND status = ?", id, domain.EventStatusPending).
		Updates(map[string]any{
			"status":        domain.EventStatusProcessed,
			"error_message": "",
		}).Error
}

func (r *EventRepository) MarkAsFailed(ctx context.Context, id uuid.UUID, message string) error {
	return r.DB.WithContext(ctx).
		Model(&domain.Event{}).
		Where("id = ? AND status = ?", id, domain.EventStatusPending).
		Updates(map[string]any{
			"status":        domain.EventStatusFailed,
			"error_message": message,
		}).Error
}

// FindStuckPendingEvents returns pending rows old enough to be considered
// orphaned by the sweeper, oldest first.
func (r *EventRepository) FindStuckPendingEvents(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Event, error) {
	var events []domain.Event

	cutoff := time.Now().Add(-olderThan)
	err := r.DB.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.EventStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	return events, nil
}
