package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

// ErrNotFound is returned by repositories when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// CampaignRepository loads campaign definitions for rule evaluation.
type CampaignRepository interface {
	// FindActiveCampaigns returns the project's active campaigns with their
	// rules preloaded, in creation order.
	FindActiveCampaigns(ctx context.Context, projectID string) ([]domain.Campaign, error)
}

// EventRepository persists events and their terminal status transitions.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	MarkAsProcessed(ctx context.Context, id uuid.UUID) error
	MarkAsFailed(ctx context.Context, id uuid.UUID, message string) error

	// FindStuckPendingEvents returns pending events created more than
	// olderThan ago, bounded by limit, oldest first.
	FindStuckPendingEvents(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Event, error)
}

// EndUserRepository resolves and mutates tenant end users.
type EndUserRepository interface {
	FindByExternalID(ctx context.Context, projectID, externalID string) (*domain.EndUser, error)
	Update(ctx context.Context, id uuid.UUID, update domain.EndUserUpdate) error
}

// CouponRepository validates coupon codes and computes their discounts.
type CouponRepository interface {
	ValidateCoupon(ctx context.Context, projectID, code, userID string, subtotal int64) (*domain.CouponValidation, error)
	CalculateDiscount(coupon *domain.Coupon, remainingSubtotal int64) int64
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

// CommissionRepository writes ledger rows and summarizes them per user.
type CommissionRepository interface {
	Create(ctx context.Context, commission *domain.Commission) error
	SummaryForUser(ctx context.Context, userID uuid.UUID) (*domain.CommissionSummary, error)
}

// CommissionPlanRepository resolves plan definitions.
type CommissionPlanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.CommissionPlan, error)
}

// ReferralRepository counts converted referrals for progression metrics.
type ReferralRepository interface {
	CountConverted(ctx context.Context, referrerUserID uuid.UUID) (int64, error)
}

// ProgressionRuleRepository loads plan-upgrade rules.
type ProgressionRuleRepository interface {
	FindActive(ctx context.Context, projectID string) ([]domain.ProgressionRule, error)
}

// QuestRepository loads quests and mutates per-user progress.
type QuestRepository interface {
	FindActiveByEventType(ctx context.Context, projectID, eventType string) ([]domain.Quest, error)
	GetProgress(ctx context.Context, questID, userID uuid.UUID) (*domain.QuestProgress, error)
	SaveProgress(ctx context.Context, progress *domain.QuestProgress) error
}

// StreakRepository loads and saves per-user activity streaks.
type StreakRepository interface {
	Get(ctx context.Context, projectID string, userID uuid.UUID) (*domain.Streak, error)
	Save(ctx context.Context, streak *domain.Streak) error
}

// BadgeRepository loads badge definitions and records awards.
type BadgeRepository interface {
	FindActive(ctx context.Context, projectID string) ([]domain.Badge, error)
	HasBadge(ctx context.Context, badgeID, userID uuid.UUID) (bool, error)
	Award(ctx context.Context, badgeID, userID uuid.UUID) error
}

// AnalyticsRepository is the ClickHouse sink for processed events.
type AnalyticsRepository interface {
	InsertBatch(ctx context.Context, events []*domain.TrackedEvent) (int, error)
	InitSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
