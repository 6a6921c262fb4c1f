package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"saaskit/internal/models"
	"saaskit/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var handlerDBSeq uint64

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handlerdb%d?mode=memory&cache=shared", atomic.AddUint64(&handlerDBSeq, 1))
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

func newInvitationShowRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupHandlerDB(t)
	handler := NewInvitationHandler(
		services.NewInvitationService(db, nil, nil),
		services.NewSSOService(db),
	)
	router := gin.New()
	router.GET("/invitation/accept", handler.Show)
	return router, db
}

func seedInvitedUser(t *testing.T, db *gorm.DB, email, rawToken string) (*models.Organization, *models.User) {
	t.Helper()

	organization := &models.Organization{Name: "Acme Inc"}
	require.NoError(t, db.Create(organization).Error)

	digest := models.DigestInvitationToken(rawToken)
	now := time.Now()
	user := &models.User{
		Email:            email,
		OrganizationID:   &organization.ID,
		Role:             models.RoleMember,
		InvitationToken:  &digest,
		InvitationSentAt: &now,
	}
	require.NoError(t, db.Create(user).Error)
	return organization, user
}

func showPayload(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Code int                    `json:"code"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, 200, body.Code)
	return body.Data
}

func TestInvitationShowServesPasswordForm(t *testing.T) {
	router, db := newInvitationShowRouter(t)
	_, user := seedInvitedUser(t, db, "invited@acme.com", "raw-token")

	req := httptest.NewRequest(http.MethodGet, "/invitation/accept?token=raw-token", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	data := showPayload(t, resp)
	assert.Equal(t, "invited@acme.com", data["email"])
	assert.Equal(t, "Acme Inc", data["organization"])
	assert.Equal(t, false, data["sso_required"])

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Nil(t, reloaded.InvitationAcceptedAt, "viewing the form must not consume the invitation")
}

func TestInvitationShowRoutesSSODomainsToProvider(t *testing.T) {
	router, db := newInvitationShowRouter(t)
	_, user := seedInvitedUser(t, db, "invited@enterprise.com", "raw-token")
	require.NoError(t, db.Create(&models.EnterpriseOauthSetting{
		Name:         "Enterprise SSO",
		Domain:       "enterprise.com",
		Provider:     models.ProviderGoogle,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/invitation/accept?token=raw-token", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	data := showPayload(t, resp)
	assert.Equal(t, true, data["sso_required"])
	assert.Equal(t, models.ProviderGoogle, data["provider"])
	assert.NotEmpty(t, data["idp_name"])

	// No session is minted from a bare link click; the invitation stays
	// pending until the identity provider round trip completes.
	assert.NotContains(t, resp.Body.String(), `"token"`)
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Nil(t, reloaded.InvitationAcceptedAt)
}
