package domain

import (
	"time"

	"github.com/google/uuid"
)

// Coupon discount types.
const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

// Coupon is a redeemable code scoped to a project. Value is a percentage
// (whole percent) or a fixed minor-unit amount depending on Type.
type Coupon struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   string     `gorm:"column:project_id;not null;uniqueIndex:idx_coupons_code,priority:1" json:"project_id"`
	Code        string     `gorm:"column:code;not null;uniqueIndex:idx_coupons_code,priority:2" json:"code"`
	Type        string     `gorm:"column:type;not null" json:"type"`
	Value       int64      `gorm:"column:value;not null" json:"value"`
	MinSubtotal int64      `gorm:"column:min_subtotal;not null;default:0" json:"min_subtotal"`
	MaxUses     int        `gorm:"column:max_uses;not null;default:0" json:"max_uses"`
	UseCount    int        `gorm:"column:use_count;not null;default:0" json:"use_count"`
	ExpiresAt   *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	Active      bool       `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Coupon) TableName() string { return "coupons" }

// CouponValidation is the outcome of validating a coupon code against a
// user and subtotal. When Valid is false, Error carries the reason.
type CouponValidation struct {
	Valid  bool
	Coupon *Coupon
	Error  string
}

// Referral links a referrer to a referred user. Converted referrals count
// toward the referral_count progression metric.
type Referral struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID      string     `gorm:"column:project_id;not null;index:idx_referrals_project" json:"project_id"`
	ReferrerUserID uuid.UUID  `gorm:"type:uuid;column:referrer_user_id;not null;index:idx_referrals_referrer" json:"referrer_user_id"`
	ReferredUserID uuid.UUID  `gorm:"type:uuid;column:referred_user_id;not null" json:"referred_user_id"`
	Converted      bool       `gorm:"column:converted;not null;default:false" json:"converted"`
	ConvertedAt    *time.Time `gorm:"column:converted_at" json:"converted_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Referral) TableName() string { return "referrals" }
