package main

import (
	"fmt"
	"os"

	"saaskit/internal/database"
	"saaskit/internal/models"
	"saaskit/pkg/logger"

	"gorm.io/gorm"
)

func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	if err := createPlatformAdmin(db); err != nil {
		return fmt.Errorf("failed to create platform admin: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// createPlatformAdmin provisions the initial operator account. The
// password comes from the environment; without one, seeding is skipped
// rather than shipping a default credential.
func createPlatformAdmin(db *gorm.DB) error {
	email := os.Getenv("PLATFORM_ADMIN_EMAIL")
	password := os.Getenv("PLATFORM_ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.GetLogger().Info("Platform admin credentials not configured, skipping seed")
		return nil
	}

	var count int64
	db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		logger.GetLogger().Info("Platform admin already exists, skipping seed")
		return nil
	}

	admin := &models.User{
		Email:   email,
		Name:    "Platform Admin",
		IsAdmin: true,
	}
	if err := admin.SetPassword(password); err != nil {
		return err
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("Platform admin created successfully")
	return nil
}
