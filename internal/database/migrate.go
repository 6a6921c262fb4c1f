package database

import (
	"saaskit/internal/models"
	"saaskit/pkg/logger"
)

// Migrate runs schema auto-migration for all models
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.EnterpriseOauthSetting{},
		&models.Notification{},
	)
	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
