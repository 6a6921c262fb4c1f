package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"saaskit/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq uint64

// setupTestDB opens an isolated in-memory database with the full
// schema migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddUint64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.EnterpriseOauthSetting{},
		&models.Notification{},
	))
	return db
}

func createTestOrganization(t *testing.T, db *gorm.DB, name string) *models.Organization {
	t.Helper()
	organization := &models.Organization{Name: name}
	require.NoError(t, db.Create(organization).Error)
	return organization
}

func createTestUser(t *testing.T, db *gorm.DB, email string, organizationID *uint, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:          email,
		Name:           email,
		OrganizationID: organizationID,
		Role:           role,
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, db.Create(user).Error)
	return user
}
