package domain

import (
	"time"

	"github.com/google/uuid"
)

// EndUser is a tenant's customer. LoyaltyPoints, TierID and CommissionPlanID
// are mutated only through the repository layer, always after a fresh fetch.
type EndUser struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID        string     `gorm:"column:project_id;not null;uniqueIndex:idx_end_users_external,priority:1" json:"project_id"`
	ExternalID       string     `gorm:"column:external_id;not null;uniqueIndex:idx_end_users_external,priority:2" json:"external_id"`
	Email            string     `gorm:"column:email" json:"email,omitempty"`
	LoyaltyPoints    int64      `gorm:"column:loyalty_points;not null;default:0" json:"loyalty_points"`
	TierID           string     `gorm:"column:tier_id" json:"tier_id,omitempty"`
	CommissionPlanID *uuid.UUID `gorm:"type:uuid;column:commission_plan_id" json:"commission_plan_id,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (EndUser) TableName() string { return "end_users" }

// EndUserUpdate carries the optional field updates applied by effects and
// the progression evaluator. Nil fields are left untouched.
type EndUserUpdate struct {
	LoyaltyPointsDelta *int64
	TierID             *string
	CommissionPlanID   *uuid.UUID
}
