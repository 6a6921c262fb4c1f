package models

import "strings"

// EnterpriseOauthSetting maps an email domain to the OAuth provider
// credentials used for enterprise sign-in. At most one configuration
// exists per domain. The relation to Organization runs through the
// shared domain value, not a foreign key.
type EnterpriseOauthSetting struct {
	BaseModel
	Name         string  `json:"name" gorm:"not null;size:100"`
	Domain       string  `json:"domain" gorm:"unique;not null;size:100;index"`
	Provider     string  `json:"provider" gorm:"not null;size:50"`
	ClientID     string  `json:"client_id" gorm:"not null;size:255"`
	ClientSecret string  `json:"-" gorm:"not null;size:255"`
	TenantID     *string `json:"tenant_id" gorm:"size:100"` // Microsoft Entra tenant
	HD           *string `json:"hd" gorm:"size:100"`        // Google hosted domain
	Scopes       *string `json:"scopes" gorm:"size:255"`
}

func (EnterpriseOauthSetting) TableName() string {
	return "enterprise_oauth_settings"
}

// Supported provider identifiers
const (
	ProviderGoogle           = "google_oauth2"
	ProviderMicrosoftEntraID = "microsoft_entra_id"
	ProviderGitHub           = "github"
)

// IdpName humanizes the provider identifier for display, e.g.
// "microsoft_entra_id" -> "Microsoft Entra Id".
func (s *EnterpriseOauthSetting) IdpName() string {
	parts := strings.Split(s.Provider, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

// ScopeList splits the configured scopes, empty when unset
func (s *EnterpriseOauthSetting) ScopeList() []string {
	if s.Scopes == nil || *s.Scopes == "" {
		return nil
	}
	return strings.Fields(*s.Scopes)
}
