package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

type CampaignRepository struct {
	DB *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

// FindActiveCampaigns returns the project's active campaigns with rules
// preloaded. Creation order, not priority order: priority is advisory
// metadata for callers.
func (r *CampaignRepository) FindActiveCampaigns(ctx context.Context, projectID string) ([]domain.Campaign, error) {
	var campaigns []domain.Campaign

	err := r.DB.WithContext(ctx).
		Preload("Rules", func(db *gorm.DB) *gorm.DB {
			return db.Order("rules.created_at ASC")
		}).
		Where("project_id = ? AND active = ?", projectID, true).
		Order("created_at ASC").
		Find(&campaigns).Error
	if err != nil {
		return nil, err
	}

	return campaigns, nil
}
