package services

import (
	"testing"

	"saaskit/internal/models"
	apperrors "saaskit/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedSSOSetting(t *testing.T, db *gorm.DB, domain, provider string) *models.EnterpriseOauthSetting {
	t.Helper()
	setting := &models.EnterpriseOauthSetting{
		Name:         domain + " SSO",
		Domain:       domain,
		Provider:     provider,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}
	require.NoError(t, db.Create(setting).Error)
	return setting
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email  string
		domain string
		ok     bool
	}{
		{"user@enterprise.com", "enterprise.com", true},
		{"User@Enterprise.COM", "enterprise.com", true},
		{"  user@enterprise.com  ", "enterprise.com", true},
		{"user@sub.enterprise.com", "sub.enterprise.com", true},
		{"user", "", false},
		{"@enterprise.com", "", false},
		{"user@", "", false},
		{"user@@enterprise.com", "", false},
		{"user@localhost", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		domain, ok := ExtractDomain(tt.email)
		assert.Equal(t, tt.ok, ok, "email %q", tt.email)
		assert.Equal(t, tt.domain, domain, "email %q", tt.email)
	}
}

func TestCheckEmailConfiguredDomain(t *testing.T) {
	db := setupTestDB(t)
	seedSSOSetting(t, db, "enterprise.com", models.ProviderMicrosoftEntraID)
	svc := NewSSOService(db)

	check, err := svc.CheckEmail("employee@enterprise.com")
	require.NoError(t, err)
	assert.True(t, check.Configured)
	assert.Equal(t, "Microsoft Entra Id", check.IdpName)
}

func TestCheckEmailUnconfiguredDomain(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSSOService(db)

	check, err := svc.CheckEmail("someone@regular.com")
	require.NoError(t, err)
	assert.False(t, check.Configured)
	assert.Empty(t, check.IdpName)
}

func TestCheckEmailInvalidFormat(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSSOService(db)

	_, err := svc.CheckEmail("not-an-email")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestIdpNameHumanizesProvider(t *testing.T) {
	tests := map[string]string{
		models.ProviderMicrosoftEntraID: "Microsoft Entra Id",
		models.ProviderGoogle:           "Google Oauth2",
		models.ProviderGitHub:           "Github",
	}
	for provider, expected := range tests {
		setting := &models.EnterpriseOauthSetting{Provider: provider}
		assert.Equal(t, expected, setting.IdpName())
	}
}

func TestAuthCodeURLCarriesStateAndLoginHint(t *testing.T) {
	db := setupTestDB(t)
	setting := seedSSOSetting(t, db, "enterprise.com", models.ProviderGoogle)
	hd := "enterprise.com"
	setting.HD = &hd
	svc := NewSSOService(db)

	url := svc.AuthCodeURL(setting, "https://app.example.com/auth/google_oauth2/callback", "state-token", "employee@enterprise.com")
	assert.Contains(t, url, "state=state-token")
	assert.Contains(t, url, "login_hint=employee%40enterprise.com")
	assert.Contains(t, url, "hd=enterprise.com")
	assert.Contains(t, url, "client_id=client-id")
}
