package services

import (
	"strings"

	"saaskit/internal/models"
	apperrors "saaskit/pkg/errors"
	"saaskit/pkg/logger"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"
)

// SSOService resolves enterprise sign-in configurations by email
// domain and builds the provider OAuth entry points. All lookups are
// read-only and idempotent; the client calls them on every email-field
// change.
type SSOService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewSSOService(db *gorm.DB) *SSOService {
	return &SSOService{
		db:  db,
		log: logger.GetLogger(),
	}
}

// ExtractDomain returns the part after the single "@". Emails without
// an "@", with more than one, or whose domain lacks a "." yield
// ok=false: the caller falls back to password entry silently.
func ExtractDomain(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return "", false
	}
	domain := email[at+1:]
	if domain == "" || !strings.Contains(domain, ".") {
		return "", false
	}
	return domain, true
}

// DomainCheck is the check_domain response payload
type DomainCheck struct {
	Configured bool   `json:"configured"`
	IdpName    string `json:"idp_name,omitempty"`
}

// CheckEmail reports whether the email's domain has enterprise SSO
// configured. A syntactically invalid non-empty email is a validation
// error; an unconfigured domain is a plain {configured:false}.
func (s *SSOService) CheckEmail(email string) (*DomainCheck, error) {
	domain, ok := ExtractDomain(email)
	if !ok {
		return &DomainCheck{Configured: false}, apperrors.Validation("email", "Invalid email format.")
	}

	setting, err := s.SettingForDomain(domain)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return &DomainCheck{Configured: false}, nil
	}
	return &DomainCheck{Configured: true, IdpName: setting.IdpName()}, nil
}

// SettingForDomain looks up the SSO configuration; nil without error
// when the domain has none.
func (s *SSOService) SettingForDomain(domain string) (*models.EnterpriseOauthSetting, error) {
	var setting models.EnterpriseOauthSetting
	err := s.db.Where("domain = ?", strings.ToLower(domain)).First(&setting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// SettingForEmail combines domain extraction and lookup
func (s *SSOService) SettingForEmail(email string) (*models.EnterpriseOauthSetting, error) {
	domain, ok := ExtractDomain(email)
	if !ok {
		return nil, nil
	}
	return s.SettingForDomain(domain)
}

// OAuthConfig builds the provider client config from a stored setting
func (s *SSOService) OAuthConfig(setting *models.EnterpriseOauthSetting, redirectURL string) *oauth2.Config {
	scopes := setting.ScopeList()
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}

	var endpoint oauth2.Endpoint
	switch setting.Provider {
	case models.ProviderMicrosoftEntraID:
		tenant := "common"
		if setting.TenantID != nil && *setting.TenantID != "" {
			tenant = *setting.TenantID
		}
		endpoint = endpoints.AzureAD(tenant)
	case models.ProviderGitHub:
		endpoint = endpoints.GitHub
	default:
		endpoint = endpoints.Google
	}

	return &oauth2.Config{
		ClientID:     setting.ClientID,
		ClientSecret: setting.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
	}
}

// AuthCodeURL builds the provider authorize URL, pinning the typed
// email as a login hint and the Google hosted domain when configured.
func (s *SSOService) AuthCodeURL(setting *models.EnterpriseOauthSetting, redirectURL, state, email string) string {
	config := s.OAuthConfig(setting, redirectURL)

	opts := []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("login_hint", email)}
	if setting.Provider == models.ProviderGoogle && setting.HD != nil && *setting.HD != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", *setting.HD))
	}
	return config.AuthCodeURL(state, opts...)
}
