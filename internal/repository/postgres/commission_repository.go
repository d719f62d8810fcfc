package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

type CommissionRepository struct {
	DB *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{DB: db}
}

func (r *CommissionRepository) Create(ctx context.Context, commission *domain.Commission) error {
	if commission.ID == uuid.Nil {
		commission.ID = uuid.New()
	}

	return r.DB.WithContext(ctx).Create(commission).Error
}

// SummaryForUser aggregates the user's ledger into the count and total used
// by progression metrics.
func (r *CommissionRepository) SummaryForUser(ctx context.Context, userID uuid.UUID) (*domain.CommissionSummary, error) {
	var summary domain.CommissionSummary

	err := r.DB.WithContext(ctx).
		Model(&domain.Commission{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS total_cents").
		Where("user_id = ?", userID).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

type CommissionPlanRepository struct {
	DB *gorm.DB
}

func NewCommissionPlanRepository(db *gorm.DB) *CommissionPlanRepository {
	return &CommissionPlanRepository{DB: db}
}

func (r *CommissionPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CommissionPlan, error) {
	var plan domain.CommissionPlan

	err := r.DB.WithContext(ctx).First(&plan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &plan, nil
}

type ReferralRepository struct {
	DB *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{DB: db}
}

func (r *ReferralRepository) CountConverted(ctx context.Context, referrerUserID uuid.UUID) (int64, error) {
	var count int64

	err := r.DB.WithContext(ctx).
		Model(&domain.Referral{}).
		Where("referrer_user_id = ? AND converted = ?", referrerUserID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

type ProgressionRuleRepository struct {
	DB *gorm.DB
}

func NewProgressionRuleRepository(db *gorm.DB) *ProgressionRuleRepository {
	return &ProgressionRuleRepository{DB: db}
}

func (r *ProgressionRuleRepository) FindActive(ctx context.Context, projectID string) ([]domain.ProgressionRule, error) {
	var rules []domain.ProgressionRule

	err := r.DB.WithContext(ctx).
		Where("project_id = ? AND active = ?", projectID, true).
		Order("created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}

	return rules, nil
}
