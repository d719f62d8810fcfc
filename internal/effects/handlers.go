package effects

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/commission"
	"github.com/perkforge/loyalty-engine/internal/domain"
)

type discountParams struct {
	DiscountType string  `json:"discountType"`
	Value        float64 `json:"value"`
	Category     string  `json:"category,omitempty"`
	MaxDiscount  int64   `json:"maxDiscount,omitempty"`
}

func (e *Executor) applyDiscount(acc *accumulator, params map[string]any) error {
	var p discountParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}

	var discount int64
	switch p.DiscountType {
	case "fixed":
		discount = int64(p.Value)
	case "percentage", "":
		base := acc.subtotal()
		if p.Category != "" {
			base = acc.categorySubtotal(p.Category)
		}
		discount = int64(math.Floor(float64(base) * p.Value / 100))
	default:
		return fmt.Errorf("unknown discount type: %q", p.DiscountType)
	}

	if discount < 0 {
		return fmt.Errorf("discount must not be negative: %d", discount)
	}
	if p.MaxDiscount > 0 && discount > p.MaxDiscount {
		discount = p.MaxDiscount
	}

	// Cumulative discount never exceeds the subtotal.
	if remaining := acc.subtotal() - acc.totalDiscount; discount > remaining {
		discount = remaining
	}
	if discount <= 0 {
		return nil
	}

	acc.totalDiscount += discount
	acc.applied = append(acc.applied, AppliedEffect{
		Type:          domain.EffectDiscount,
		Description:   fmt.Sprintf("%s discount", p.DiscountType),
		DiscountCents: discount,
	})
	return nil
}

func (e *Executor) applyAddItem(acc *accumulator, params map[string]any) error {
	var item LineItem
	if err := decodeParams(params, &item); err != nil {
		return err
	}
	if item.SKU == "" {
		return fmt.Errorf("add_item requires a sku")
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	acc.items = append(acc.items, item)
	acc.applied = append(acc.applied, AppliedEffect{
		Type:        domain.EffectAddItem,
		Description: "added " + item.SKU,
	})
	return nil
}

type removeItemParams struct {
	SKU string `json:"sku"`
}

func (e *Executor) applyRemoveItem(acc *accumulator, params map[string]any) error {
	var p removeItemParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}
	if p.SKU == "" {
		return fmt.Errorf("remove_item requires a sku")
	}

	kept := acc.items[:0]
	removed := false
	for _, item := range acc.items {
		if item.SKU == p.SKU {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	acc.items = kept

	// Removing an absent SKU is a no-op, not an error.
	if removed {
		acc.applied = append(acc.applied, AppliedEffect{
			Type:        domain.EffectRemoveItem,
			Description: "removed " + p.SKU,
		})
	}
	return nil
}

type shippingParams struct {
	ShippingCents int64 `json:"shippingCents"`
}

func (e *Executor) applyShipping(acc *accumulator, params map[string]any) error {
	var p shippingParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}
	if p.ShippingCents < 0 {
		return fmt.Errorf("shipping override must not be negative: %d", p.ShippingCents)
	}

	acc.shipping = p.ShippingCents
	acc.applied = append(acc.applied, AppliedEffect{
		Type:        domain.EffectFreeShipping,
		Description: fmt.Sprintf("shipping set to %d", p.ShippingCents),
	})
	return nil
}

type couponParams struct {
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

func (e *Executor) applyCoupon(ctx context.Context, acc *accumulator, params map[string]any) error {
	var p couponParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}
	if p.Code == "" {
		return fmt.Errorf("apply_coupon requires a code")
	}

	subtotal := acc.subtotal()
	validation, err := e.coupons.ValidateCoupon(ctx, acc.state.ProjectID, p.Code, acc.state.UserID, subtotal)
	if err != nil {
		return fmt.Errorf("coupon validation failed: %w", err)
	}

	// An invalid coupon is silently dropped; explicit rejection goes through
	// the reject_coupon effect.
	if !validation.Valid {
		e.log.Debug("Coupon not applied",
			zap.String("code", p.Code),
			zap.String("reason", validation.Error))
		return nil
	}

	remaining := subtotal - acc.totalDiscount
	discount := e.coupons.CalculateDiscount(validation.Coupon, remaining)
	if discount <= 0 {
		return nil
	}

	if err := e.coupons.IncrementUsage(ctx, validation.Coupon.ID); err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	acc.totalDiscount += discount
	acc.applied = append(acc.applied, AppliedEffect{
		Type:          domain.EffectApplyCoupon,
		Description:   "coupon " + p.Code,
		DiscountCents: discount,
	})
	return nil
}

func (e *Executor) rejectCoupon(acc *accumulator, params map[string]any) error {
	var p couponParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}
	if p.Code == "" {
		return fmt.Errorf("reject_coupon requires a code")
	}

	acc.rejected = append(acc.rejected, RejectedCoupon{
		Code:   p.Code,
		Reason: p.Reason,
	})
	acc.applied = append(acc.applied, AppliedEffect{
		Type:        domain.EffectRejectCoupon,
		Description: "rejected coupon " + p.Code,
	})
	return nil
}

type grantPointsParams struct {
	Points int64 `json:"points"`
}

func (e *Executor) grantPoints(ctx context.Context, acc *accumulator, params map[string]any) error {
	var p grantPointsParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}
	if p.Points <= 0 {
		return fmt.Errorf("grant_points requires a positive point amount")
	}

	user, err := e.resolveUser(ctx, acc)
	if err != nil {
		return err
	}

	delta := p.Points
	if err := e.users.Update(ctx, user.ID, domain.EndUserUpdate{LoyaltyPointsDelta: &delta}); err != nil {
		return fmt.Errorf("failed to grant points: %w", err)
	}

	acc.applied = append(acc.applied, AppliedEffect{
		Type:        domain.EffectGrantPoints,
		Description: fmt.Sprintf("granted %d points", p.Points),
	})
	return nil
}

type upgradePlanParams struct {
	PlanID string `json:"planId"`
}

func (e *Executor) upgradePlan(ctx context.Context, acc *accumulator, params map[string]any) error {
	var p upgradePlanParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}

	planID, err := uuid.Parse(p.PlanID)
	if err != nil {
		return fmt.Errorf("invalid plan id %q: %w", p.PlanID, err)
	}
	if _, err := e.plans.FindByID(ctx, planID); err != nil {
		return fmt.Errorf("failed to resolve plan %s: %w", planID, err)
	}

	user, err := e.resolveUser(ctx, acc)
	if err != nil {
		return err
	}

	if err := e.users.Update(ctx, user.ID, domain.EndUserUpdate{CommissionPlanID: &planID}); err != nil {
		return fmt.Errorf("failed to upgrade plan: %w", err)
	}

	acc.applied = append(acc.applied, AppliedEffect{
		Type:        domain.EffectUpgradePlan,
		Description: "plan " + p.PlanID,
	})
	return nil
}

type upgradeTierParams struct {
	TierID string `json:"tierId"`
}

func (e *Executor) upgradeTier(ctx context.Context, acc *accumulator, params map[string]any) error {
	var p upgradeTierParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}
	if p.TierID == "" {
		return fmt.Errorf("upgrade_tier requires a tierId")
	}

	user, err := e.resolveUser(ctx, acc)
	if err != nil {
		return err
	}

	if err := e.users.Update(ctx, user.ID, domain.EndUserUpdate{TierID: &p.TierID}); err != nil {
		return fmt.Errorf("failed to upgrade tier: %w", err)
	}

	acc.applied = append(acc.applied, AppliedEffect{
		Type:        domain.EffectUpgradeTier,
		Description: "tier " + p.TierID,
	})
	return nil
}

type createCommissionParams struct {
	PlanID            string `json:"planId"`
	SourceAmountCents int64  `json:"sourceAmountCents,omitempty"`
}

func (e *Executor) createCommission(ctx context.Context, acc *accumulator, params map[string]any) error {
	var p createCommissionParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}

	planID, err := uuid.Parse(p.PlanID)
	if err != nil {
		return fmt.Errorf("invalid plan id %q: %w", p.PlanID, err)
	}
	plan, err := e.plans.FindByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to resolve plan %s: %w", planID, err)
	}

	user, err := e.resolveUser(ctx, acc)
	if err != nil {
		return err
	}

	source := p.SourceAmountCents
	if source == 0 {
		source = acc.subtotal() - acc.totalDiscount
	}

	result, err := commission.Calculate(*plan, source)
	if err != nil {
		return err
	}

	entry := &domain.Commission{
		ProjectID:         acc.state.ProjectID,
		UserID:            user.ID,
		AmountCents:       result.Amount,
		SourceAmountCents: result.SourceAmount,
		PlanType:          result.PlanType,
		PlanValue:         result.PlanValue,
		Currency:          plan.Currency,
	}
	if err := e.ledger.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to write commission: %w", err)
	}

	msg := &domain.RawEventMessage{
		ProjectID: acc.state.ProjectID,
		UserID:    acc.state.UserID,
		Event:     domain.EventCommissionCreated,
		Properties: map[string]any{
			"commissionId": entry.ID.String(),
			"amountCents":  result.Amount,
		},
		Timestamp:  time.Now().Unix(),
		ReceivedAt: time.Now().Unix(),
	}
	if err := e.publisher.PublishEvent(ctx, msg, entry.ID.String()); err != nil {
		// The ledger row is durable; the downstream event is best effort.
		e.log.Warn("Failed to publish commission.created",
			zap.String("commission_id", entry.ID.String()),
			zap.Error(err))
	}

	acc.applied = append(acc.applied, AppliedEffect{
		Type:        domain.EffectCreateCommission,
		Description: fmt.Sprintf("commission %d cents", result.Amount),
	})
	return nil
}

type notificationParams struct {
	Template string `json:"template"`
	Channel  string `json:"channel,omitempty"`
}

func (e *Executor) queueNotification(ctx context.Context, acc *accumulator, params map[string]any) error {
	var p notificationParams
	if err := decodeParams(params, &p); err != nil {
		return err
	}
	if p.Template == "" {
		return fmt.Errorf("notification requires a template")
	}

	msg := &domain.RawEventMessage{
		ProjectID:  acc.state.ProjectID,
		UserID:     acc.state.UserID,
		Event:      "notification.queued",
		Properties: map[string]any{"template": p.Template, "channel": p.Channel},
		Timestamp:  time.Now().Unix(),
		ReceivedAt: time.Now().Unix(),
	}
	if err := e.publisher.PublishEvent(ctx, msg, ""); err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}

	acc.applied = append(acc.applied, AppliedEffect{
		Type:        domain.EffectNotification,
		Description: "notification " + p.Template,
	})
	return nil
}

func (e *Executor) resolveUser(ctx context.Context, acc *accumulator) (*domain.EndUser, error) {
	if acc.state.UserID == "" {
		return nil, fmt.Errorf("effect requires a user id")
	}
	user, err := e.users.FindByExternalID(ctx, acc.state.ProjectID, acc.state.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user %q: %w", acc.state.UserID, err)
	}
	return user, nil
}
