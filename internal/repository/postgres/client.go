package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/perkforge/loyalty-engine/internal/config"
	"github.com/perkforge/loyalty-engine/internal/domain"
)

// NewDB opens a gorm connection against the configured Postgres instance.
func NewDB(cfg config.PostgresConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DB, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for every persisted entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Event{},
		&domain.Campaign{},
		&domain.Rule{},
		&domain.EndUser{},
		&domain.Coupon{},
		&domain.Referral{},
		&domain.CommissionPlan{},
		&domain.Commission{},
		&domain.ProgressionRule{},
		&domain.Quest{},
		&domain.QuestProgress{},
		&domain.Streak{},
		&domain.Badge{},
		&domain.UserBadge{},
	)
}
