package domain

import (
	"time"

	"github.com/google/uuid"
)

// Commission plan types. PERCENTAGE plans store basis points (1000 = 10%),
// FIXED plans store minor currency units.
const (
	PlanTypePercentage = "PERCENTAGE"
	PlanTypeFixed      = "FIXED"
)

// CommissionPlan defines how a commission amount is derived from a source
// amount.
type CommissionPlan struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID string    `gorm:"column:project_id;not null;index:idx_commission_plans_project" json:"project_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Type      string    `gorm:"column:type;not null" json:"type"`
	Value     int64     `gorm:"column:value;not null" json:"value"`
	Currency  string    `gorm:"column:currency;not null;default:'USD'" json:"currency"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CommissionPlan) TableName() string { return "commission_plans" }

// Commission is one ledger row written when a commission effect fires.
type Commission struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID         string    `gorm:"column:project_id;not null;index:idx_commissions_project" json:"project_id"`
	UserID            uuid.UUID `gorm:"type:uuid;column:user_id;not null;index:idx_commissions_user" json:"user_id"`
	AmountCents       int64     `gorm:"column:amount_cents;not null" json:"amount_cents"`
	SourceAmountCents int64     `gorm:"column:source_amount_cents;not null" json:"source_amount_cents"`
	PlanType          string    `gorm:"column:plan_type;not null" json:"plan_type"`
	PlanValue         int64     `gorm:"column:plan_value;not null" json:"plan_value"`
	Currency          string    `gorm:"column:currency;not null" json:"currency"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Commission) TableName() string { return "commissions" }

// CommissionSummary aggregates a user's ledger for progression metrics.
type CommissionSummary struct {
	Count      int64
	TotalCents int64
}
