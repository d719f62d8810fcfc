package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

type CouponRepository struct {
	DB *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{DB: db}
}

// ValidateCoupon checks a code for the project against activity, expiry,
// usage limits and minimum subtotal. An invalid coupon is a result, not an
// error; errors are reserved for storage failures.
func (r *CouponRepository) ValidateCoupon(ctx context.Context, projectID, code, userID string, subtotal int64) (*domain.CouponValidation, error) {
	var coupon domain.Coupon

	err := r.DB.WithContext(ctx).
		Where("project_id = ? AND code = ?", projectID, code).
		First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.CouponValidation{Valid: false, Error: "coupon not found"}, nil
		}
		return nil, err
	}

	switch {
	case !coupon.Active:
		return &domain.CouponValidation{Valid: false, Error: "coupon is not active"}, nil
	case coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(time.Now()):
		return &domain.CouponValidation{Valid: false, Error: "coupon has expired"}, nil
	case coupon.MaxUses > 0 && coupon.UseCount >= coupon.MaxUses:
		return &domain.CouponValidation{Valid: false, Error: "coupon usage limit reached"}, nil
	case subtotal < coupon.MinSubtotal:
		return &domain.CouponValidation{Valid: false, Error: "subtotal below coupon minimum"}, nil
	}

	return &domain.CouponValidation{Valid: true, Coupon: &coupon}, nil
}

// CalculateDiscount computes the coupon's minor-unit discount against the
// remaining subtotal, never exceeding it.
func (r *CouponRepository) CalculateDiscount(coupon *domain.Coupon, remainingSubtotal int64) int64 {
	if coupon == nil || remainingSubtotal <= 0 {
		return 0
	}

	var discount int64
	switch coupon.Type {
	case domain.CouponTypePercentage:
		discount = remainingSubtotal * coupon.Value / 100
	case domain.CouponTypeFixed:
		discount = coupon.Value
	}

	if discount > remainingSubtotal {
		discount = remainingSubtotal
	}
	if discount < 0 {
		discount = 0
	}

	return discount
}

func (r *CouponRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).
		Model(&domain.Coupon{}).
		Where("id = ?", id).
		UpdateColumn("use_count", gorm.Expr("use_count + 1")).Error
}
