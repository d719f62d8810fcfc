package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Condition group logic values.
const (
	LogicAnd = "and"
	LogicOr  = "or"
)

// Comparison operators supported by the condition evaluator.
const (
	OpEquals             = "equals"
	OpNotEquals          = "not_equals"
	OpGreaterThan        = "greater_than"
	OpGreaterThanOrEqual = "greater_than_or_equal"
	OpLessThan           = "less_than"
	OpLessThanOrEqual    = "less_than_or_equal"
	OpContains           = "contains"
	OpNotContains        = "not_contains"
	OpStartsWith         = "starts_with"
	OpEndsWith           = "ends_with"
	OpIn                 = "in"
	OpNotIn              = "not_in"
	OpExists             = "exists"
	OpNotExists          = "not_exists"
)

// Campaign is a time-scoped container of rules for one tenant. Priority is
// advisory metadata for callers; the engine evaluates campaigns in
// repository return order.
type Campaign struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID string    `gorm:"column:project_id;not null;index:idx_campaigns_project" json:"project_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Active    bool      `gorm:"column:active;not null;default:true" json:"active"`
	Priority  int       `gorm:"column:priority;not null;default:0" json:"priority"`
	Schedule  *Schedule `gorm:"column:schedule;type:jsonb" json:"schedule,omitempty"`
	Rules     []Rule    `gorm:"foreignKey:CampaignID" json:"rules"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Campaign) TableName() string { return "campaigns" }

// Schedule constrains when a campaign is live. Every field is optional; an
// absent field means unconstrained on that axis. Times are "HH:mm" strings
// compared against the local clock; Timezone is carried for callers but not
// applied by the gate.
type Schedule struct {
	StartDate  *time.Time `json:"startDate,omitempty"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	DaysOfWeek []int      `json:"daysOfWeek,omitempty"`
	StartTime  string     `json:"startTime,omitempty"`
	EndTime    string     `json:"endTime,omitempty"`
	Timezone   string     `json:"timezone,omitempty"`
}

// Value implements driver.Valuer so a Schedule persists as a jsonb column.
func (s *Schedule) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for jsonb schedule columns.
func (s *Schedule) Scan(value any) error {
	if value == nil {
		return nil
	}
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Rule is a condition-group-plus-effects unit within a campaign. An empty
// EventTypes list matches every event type.
type Rule struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID uuid.UUID      `gorm:"type:uuid;column:campaign_id;not null;index:idx_rules_campaign" json:"campaign_id"`
	Name       string         `gorm:"column:name;not null" json:"name"`
	Active     bool           `gorm:"column:active;not null;default:true" json:"active"`
	Priority   int            `gorm:"column:priority;not null;default:0" json:"priority"`
	EventTypes StringList     `gorm:"column:event_types;type:jsonb" json:"event_types"`
	Conditions ConditionGroup `gorm:"column:conditions;type:jsonb" json:"conditions"`
	Effects    EffectList     `gorm:"column:effects;type:jsonb" json:"effects"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Rule) TableName() string { return "rules" }

// ConditionGroup combines conditions with and/or logic. A group with zero
// conditions always matches.
type ConditionGroup struct {
	Logic      string      `json:"logic"`
	Conditions []Condition `json:"conditions"`
}

// Condition is a single field/operator/value predicate. Field is a dot-path
// into the flattened event payload.
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

// Value implements driver.Valuer for jsonb condition columns.
func (g ConditionGroup) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Scan implements sql.Scanner for jsonb condition columns.
func (g *ConditionGroup) Scan(value any) error {
	if value == nil {
		*g = ConditionGroup{}
		return nil
	}
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*g = ConditionGroup{}
		return nil
	}
	return json.Unmarshal(bytes, g)
}

// StringList persists a []string as a jsonb array.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*l = nil
		return nil
	}
	return json.Unmarshal(bytes, l)
}

func jsonBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("incompatible type for jsonb column")
	}
}
