package domain

import (
	"time"

	"github.com/google/uuid"
)

// Quest counts occurrences of one event type toward a target and grants
// points on completion.
type Quest struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    string    `gorm:"column:project_id;not null;index:idx_quests_project" json:"project_id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Active       bool      `gorm:"column:active;not null;default:true" json:"active"`
	EventType    string    `gorm:"column:event_type;not null" json:"event_type"`
	Target       int       `gorm:"column:target;not null" json:"target"`
	RewardPoints int64     `gorm:"column:reward_points;not null;default:0" json:"reward_points"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Quest) TableName() string { return "quests" }

// QuestProgress tracks one user's count toward a quest. CompletedAt doubles
// as the completed-exactly-once guard.
type QuestProgress struct {
	QuestID     uuid.UUID  `gorm:"type:uuid;column:quest_id;primaryKey" json:"quest_id"`
	UserID      uuid.UUID  `gorm:"type:uuid;column:user_id;primaryKey" json:"user_id"`
	Count       int        `gorm:"column:count;not null;default:0" json:"count"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (QuestProgress) TableName() string { return "quest_progress" }

// Streak tracks consecutive-day activity per user. LastDay is the calendar
// day (local) of the most recent qualifying event.
type Streak struct {
	ProjectID string    `gorm:"column:project_id;primaryKey" json:"project_id"`
	UserID    uuid.UUID `gorm:"type:uuid;column:user_id;primaryKey" json:"user_id"`
	Current   int       `gorm:"column:current;not null;default:0" json:"current"`
	Longest   int       `gorm:"column:longest;not null;default:0" json:"longest"`
	LastDay   time.Time `gorm:"column:last_day" json:"last_day"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Streak) TableName() string { return "streaks" }

// Badge metric names.
const (
	BadgeMetricLoyaltyPoints = "loyalty_points"
	BadgeMetricStreakLongest = "streak_longest"
)

// Badge is awarded once a user metric reaches the threshold.
type Badge struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID string    `gorm:"column:project_id;not null;index:idx_badges_project" json:"project_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Active    bool      `gorm:"column:active;not null;default:true" json:"active"`
	Metric    string    `gorm:"column:metric;not null" json:"metric"`
	Threshold int64     `gorm:"column:threshold;not null" json:"threshold"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Badge) TableName() string { return "badges" }

// UserBadge records a single award of a badge to a user.
type UserBadge struct {
	BadgeID   uuid.UUID `gorm:"type:uuid;column:badge_id;primaryKey" json:"badge_id"`
	UserID    uuid.UUID `gorm:"type:uuid;column:user_id;primaryKey" json:"user_id"`
	AwardedAt time.Time `gorm:"column:awarded_at;autoCreateTime" json:"awarded_at"`
}

func (UserBadge) TableName() string { return "user_badges" }
