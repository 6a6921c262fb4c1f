package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"saaskit/internal/models"
	"saaskit/internal/services"
	apperrors "saaskit/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCheckDomainRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupHandlerDB(t)
	handler := NewEnterpriseOauthHandler(services.NewSSOService(db))
	router := gin.New()
	router.GET("/enterprise_configurations/check_domain", handler.CheckDomain)
	return router, db
}

func checkDomain(t *testing.T, router *gin.Engine, email string) (int, string, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/enterprise_configurations/check_domain?email="+email, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var body struct {
		Code    int                    `json:"code"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.Code, body.Message, body.Data
}

func TestCheckDomainConfigured(t *testing.T) {
	router, db := newCheckDomainRouter(t)
	require.NoError(t, db.Create(&models.EnterpriseOauthSetting{
		Name:         "Enterprise SSO",
		Domain:       "enterprise.com",
		Provider:     models.ProviderGoogle,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}).Error)

	code, _, data := checkDomain(t, router, "user@enterprise.com")
	assert.Equal(t, apperrors.CodeSuccess, code)
	assert.Equal(t, true, data["configured"])
	assert.NotEmpty(t, data["idp_name"])

	code, _, data = checkDomain(t, router, "user@elsewhere.com")
	assert.Equal(t, apperrors.CodeSuccess, code)
	assert.Equal(t, false, data["configured"])
}

func TestCheckDomainMalformedEmailIsUnprocessable(t *testing.T) {
	router, _ := newCheckDomainRouter(t)

	code, message, data := checkDomain(t, router, "not-an-email")
	assert.Equal(t, apperrors.CodeUnprocessable, code)
	assert.Equal(t, "Invalid email format.", message)
	// The payload still answers the question being asked
	assert.Equal(t, false, data["configured"])
}
