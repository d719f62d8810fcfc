package domain

import (
	"time"

	"github.com/google/uuid"
)

// Progression trigger metrics. The evaluator builds one snapshot map keyed
// by these names and compares each rule's threshold against it.
const (
	MetricReferralCount           = "referral_count"
	MetricCommissionCount         = "commission_count"
	MetricLifetimeCommissionCents = "lifetime_commission_cents"
)

// ProgressionRule upgrades a user's commission plan once a metric reaches
// its threshold. Among qualifying rules the highest threshold wins.
type ProgressionRule struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     string    `gorm:"column:project_id;not null;index:idx_progression_rules_project" json:"project_id"`
	Active        bool      `gorm:"column:active;not null;default:true" json:"active"`
	TriggerMetric string    `gorm:"column:trigger_metric;not null" json:"trigger_metric"`
	Threshold     int64     `gorm:"column:threshold;not null" json:"threshold"`
	TargetPlanID  uuid.UUID `gorm:"type:uuid;column:target_plan_id;not null" json:"target_plan_id"`
	Priority      int       `gorm:"column:priority;not null;default:0" json:"priority"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ProgressionRule) TableName() string { return "progression_rules" }
