package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/perkforge/loyalty-engine/internal/domain"
	"github.com/perkforge/loyalty-engine/internal/repository"
)

// ErrNotFound aliases the repository-level sentinel so callers of this
// package can check either.
var ErrNotFound = repository.ErrNotFound

type EndUserRepository struct {
	DB *gorm.DB
}

func NewEndUserRepository(db *gorm.DB) *EndUserRepository {
	return &EndUserRepository{DB: db}
}

func (r *EndUserRepository) FindByExternalID(ctx context.Context, projectID, externalID string) (*domain.EndUser, error) {
	var user domain.EndUser

	err := r.DB.WithContext(ctx).
		Where("project_id = ? AND external_id = ?", projectID, externalID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

// Update applies only the fields set on the update. The points delta is an
// atomic SQL increment, never a read-modify-write in Go.
func (r *EndUserRepository) Update(ctx context.Context, id uuid.UUID, update domain.EndUserUpdate) error {
	updates := map[string]any{}

	if update.LoyaltyPointsDelta != nil {
		updates["loyalty_points"] = gorm.Expr("loyalty_points + ?", *update.LoyaltyPointsDelta)
	}
	if update.TierID != nil {
		updates["tier_id"] = *update.TierID
	}
	if update.CommissionPlanID != nil {
		updates["commission_plan_id"] = *update.CommissionPlanID
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.DB.WithContext(ctx).
		Model(&domain.EndUser{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
