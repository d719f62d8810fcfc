package effects

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/domain"
	"github.com/perkforge/loyalty-engine/internal/queue"
	"github.com/perkforge/loyalty-engine/internal/repository"
)

// LineItem is one cart line.
type LineItem struct {
	SKU        string `json:"sku"`
	Name       string `json:"name,omitempty"`
	Category   string `json:"category,omitempty"`
	PriceCents int64  `json:"priceCents"`
	Quantity   int    `json:"quantity"`
}

// Context carries the mutable cart/session state effects fold over.
type Context struct {
	ProjectID     string
	UserID        string
	Currency      string
	Items         []LineItem
	ShippingCents int64
}

// AppliedEffect records one effect that took hold.
type AppliedEffect struct {
	Type          string `json:"type"`
	RuleID        string `json:"ruleId,omitempty"`
	Description   string `json:"description,omitempty"`
	DiscountCents int64  `json:"discountCents,omitempty"`
}

// RejectedCoupon records a coupon explicitly rejected for user-facing
// reporting.
type RejectedCoupon struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Result is the outcome of folding a list of effects over a context.
// FinalTotal is never negative and never exceeds the subtotal.
type Result struct {
	Items           []LineItem
	Subtotal        int64
	TotalDiscount   int64
	ShippingCents   int64
	FinalTotal      int64
	Applied         []AppliedEffect
	RejectedCoupons []RejectedCoupon
}

// Executor applies matched effects sequentially. One effect failing is
// logged and skipped; the remaining effects still run.
type Executor struct {
	coupons   repository.CouponRepository
	users     repository.EndUserRepository
	plans     repository.CommissionPlanRepository
	ledger    repository.CommissionRepository
	publisher queue.Publisher
	log       *zap.Logger
}

// NewExecutor creates an effect executor.
func NewExecutor(
	coupons repository.CouponRepository,
	users repository.EndUserRepository,
	plans repository.CommissionPlanRepository,
	ledger repository.CommissionRepository,
	publisher queue.Publisher,
	log *zap.Logger,
) *Executor {
	return &Executor{
		coupons:   coupons,
		users:     users,
		plans:     plans,
		ledger:    ledger,
		publisher: publisher,
		log:       log,
	}
}

// Execute folds the effects over the context in list order and returns the
// final state. Partial application: a failing effect does not abort the
// rest.
func (e *Executor) Execute(ctx context.Context, state *Context, effects []domain.Effect) *Result {
	acc := &accumulator{
		state:    state,
		items:    append([]LineItem(nil), state.Items...),
		shipping: state.ShippingCents,
	}

	for _, effect := range effects {
		if err := e.apply(ctx, acc, effect); err != nil {
			e.log.Warn("Effect failed, skipping",
				zap.String("effect_type", effect.Type),
				zap.String("project_id", state.ProjectID),
				zap.Error(err))
		}
	}

	subtotal := acc.subtotal()
	if acc.totalDiscount > subtotal {
		acc.totalDiscount = subtotal
	}

	finalTotal := subtotal - acc.totalDiscount
	if finalTotal < 0 {
		finalTotal = 0
	}

	return &Result{
		Items:           acc.items,
		Subtotal:        subtotal,
		TotalDiscount:   acc.totalDiscount,
		ShippingCents:   acc.shipping,
		FinalTotal:      finalTotal,
		Applied:         acc.applied,
		RejectedCoupons: acc.rejected,
	}
}

type accumulator struct {
	state         *Context
	items         []LineItem
	totalDiscount int64
	shipping      int64
	applied       []AppliedEffect
	rejected      []RejectedCoupon
}

func (a *accumulator) subtotal() int64 {
	var total int64
	for _, item := range a.items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += item.PriceCents * int64(qty)
	}
	return total
}

func (a *accumulator) categorySubtotal(category string) int64 {
	var total int64
	for _, item := range a.items {
		if item.Category != category {
			continue
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += item.PriceCents * int64(qty)
	}
	return total
}

func (e *Executor) apply(ctx context.Context, acc *accumulator, effect domain.Effect) error {
	switch effect.Type {
	case domain.EffectDiscount:
		return e.applyDiscount(acc, effect.Params)
	case domain.EffectAddItem:
		return e.applyAddItem(acc, effect.Params)
	case domain.EffectRemoveItem:
		return e.applyRemoveItem(acc, effect.Params)
	case domain.EffectFreeShipping:
		return e.applyShipping(acc, effect.Params)
	case domain.EffectApplyCoupon:
		return e.applyCoupon(ctx, acc, effect.Params)
	case domain.EffectRejectCoupon:
		return e.rejectCoupon(acc, effect.Params)
	case domain.EffectGrantPoints:
		return e.grantPoints(ctx, acc, effect.Params)
	case domain.EffectUpgradePlan:
		return e.upgradePlan(ctx, acc, effect.Params)
	case domain.EffectUpgradeTier:
		return e.upgradeTier(ctx, acc, effect.Params)
	case domain.EffectCreateCommission:
		return e.createCommission(ctx, acc, effect.Params)
	case domain.EffectNotification:
		return e.queueNotification(ctx, acc, effect.Params)
	default:
		e.log.Warn("Unknown effect type, ignoring",
			zap.String("effect_type", effect.Type))
		return nil
	}
}

// decodeParams round-trips the duck-typed params map into a typed payload.
func decodeParams(params map[string]any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal effect params: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode effect params: %w", err)
	}
	return nil
}
