package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/perkforge/loyalty-engine/internal/domain"
)

type QuestRepository struct {
	DB *gorm.DB
}

func NewQuestRepository(db *gorm.DB) *QuestRepository {
	return &QuestRepository{DB: db}
}

func (r *QuestRepository) FindActiveByEventType(ctx context.Context, projectID, eventType string) ([]domain.Quest, error) {
	var quests []domain.Quest

	err := r.DB.WithContext(ctx).
		Where("project_id = ? AND active = ? AND event_type = ?", projectID, true, eventType).
		Find(&quests).Error
	if err != nil {
		return nil, err
	}

	return quests, nil
}

func (r *QuestRepository) GetProgress(ctx context.Context, questID, userID uuid.UUID) (*domain.QuestProgress, error) {
	var progress domain.QuestProgress

	err := r.DB.WithContext(ctx).
		Where("quest_id = ? AND user_id = ?", questID, userID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &progress, nil
}

func (r *QuestRepository) SaveProgress(ctx context.Context, progress *domain.QuestProgress) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "quest_id"}, {Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(progress).Error
}

type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

func (r *StreakRepository) Get(ctx context.Context, projectID string, userID uuid.UUID) (*domain.Streak, error) {
	var streak domain.Streak

	err := r.DB.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&streak).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &streak, nil
}

func (r *StreakRepository) Save(ctx context.Context, streak *domain.Streak) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(streak).Error
}

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) FindActive(ctx context.Context, projectID string) ([]domain.Badge, error) {
	var badges []domain.Badge

	err := r.DB.WithContext(ctx).
		Where("project_id = ? AND active = ?", projectID, true).
		Find(&badges).Error
	if err != nil {
		return nil, err
	}

	return badges, nil
}

func (r *BadgeRepository) HasBadge(ctx context.Context, badgeID, userID uuid.UUID) (bool, error) {
	var count int64

	err := r.DB.WithContext(ctx).
		Model(&domain.UserBadge{}).
		Where("badge_id = ? AND user_id = ?", badgeID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *BadgeRepository) Award(ctx context.Context, badgeID, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.UserBadge{BadgeID: badgeID, UserID: userID}).Error
}
