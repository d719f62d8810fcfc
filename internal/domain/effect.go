package domain

import (
	"database/sql/driver"
	"encoding/json"
)

// Effect types produced by matched rules. Unknown types are logged and
// ignored by the executor rather than failing the event.
const (
	EffectDiscount         = "discount"
	EffectAddItem          = "add_item"
	EffectRemoveItem       = "remove_item"
	EffectFreeShipping     = "free_shipping"
	EffectApplyCoupon      = "apply_coupon"
	EffectRejectCoupon     = "reject_coupon"
	EffectGrantPoints      = "grant_points"
	EffectUpgradePlan      = "upgrade_plan"
	EffectUpgradeTier      = "upgrade_tier"
	EffectCreateCommission = "create_commission"
	EffectNotification     = "notification"
)

// Effect is a typed, parameterized action. Params is duck-typed per effect
// type and decoded into a payload struct by the executor.
type Effect struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// EffectList persists an ordered effect list as a jsonb array.
type EffectList []Effect

// Value implements driver.Valuer.
func (l EffectList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]Effect{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *EffectList) Scan(value any) error {
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
