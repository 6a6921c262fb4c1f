package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"saaskit/internal/models"
	apperrors "saaskit/pkg/errors"
	"saaskit/pkg/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// userinfo endpoints per provider
var profileEndpoints = map[string]string{
	models.ProviderGoogle:           "https://openidconnect.googleapis.com/v1/userinfo",
	models.ProviderMicrosoftEntraID: "https://graph.microsoft.com/v1.0/me",
	models.ProviderGitHub:           "https://api.github.com/user",
}

// Profile is the provider identity extracted from a callback
type Profile struct {
	Provider string
	UID      string
	Email    string
	Name     string
}

// OAuthService consumes provider callbacks: code exchange, profile
// fetch, and the reconcile-against-invitations state machine.
type OAuthService struct {
	db          *gorm.DB
	log         *logrus.Logger
	http        *resty.Client
	users       *UserService
	invitations *InvitationService
	sso         *SSOService
}

func NewOAuthService(db *gorm.DB, users *UserService, invitations *InvitationService, sso *SSOService) *OAuthService {
	return &OAuthService{
		db:          db,
		log:         logger.GetLogger(),
		http:        resty.New().SetTimeout(15 * time.Second),
		users:       users,
		invitations: invitations,
		sso:         sso,
	}
}

// Exchange trades the authorization code for a token and fetches the
// provider profile. Provider errors come back as ExternalServiceError;
// the raw detail is logged, never surfaced.
func (s *OAuthService) Exchange(ctx context.Context, setting *models.EnterpriseOauthSetting, redirectURL, code string) (*Profile, error) {
	config := s.sso.OAuthConfig(setting, redirectURL)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		s.log.WithError(err).WithField("provider", setting.Provider).Error("OAuth code exchange failed")
		return nil, apperrors.External("Authentication failed. Please try again.", err)
	}

	return s.fetchProfile(ctx, setting.Provider, token.AccessToken)
}

func (s *OAuthService) fetchProfile(ctx context.Context, provider, accessToken string) (*Profile, error) {
	endpoint, ok := profileEndpoints[provider]
	if !ok {
		return nil, apperrors.External("Unsupported identity provider.", nil)
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+accessToken).
		SetHeader("Accept", "application/json").
		Get(endpoint)
	if err != nil || resp.IsError() {
		s.log.WithError(err).WithField("provider", provider).Error("Profile fetch failed")
		return nil, apperrors.External("Authentication failed. Please try again.", err)
	}

	return parseProfile(provider, resp.Body())
}

func parseProfile(provider string, body []byte) (*Profile, error) {
	switch provider {
	case models.ProviderGoogle:
		var raw struct {
			Sub   string `json:"sub"`
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, apperrors.External("Authentication failed. Please try again.", err)
		}
		return &Profile{Provider: provider, UID: raw.Sub, Email: raw.Email, Name: raw.Name}, nil

	case models.ProviderMicrosoftEntraID:
		var raw struct {
			ID                string `json:"id"`
			Mail              string `json:"mail"`
			UserPrincipalName string `json:"userPrincipalName"`
			DisplayName       string `json:"displayName"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, apperrors.External("Authentication failed. Please try again.", err)
		}
		email := raw.Mail
		if email == "" {
			email = raw.UserPrincipalName
		}
		return &Profile{Provider: provider, UID: raw.ID, Email: email, Name: raw.DisplayName}, nil

	case models.ProviderGitHub:
		var raw struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
			Login string `json:"login"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, apperrors.External("Authentication failed. Please try again.", err)
		}
		name := raw.Name
		if name == "" {
			name = raw.Login
		}
		return &Profile{Provider: provider, UID: strconv.FormatInt(raw.ID, 10), Email: raw.Email, Name: name}, nil
	}
	return nil, apperrors.External("Unsupported identity provider.", nil)
}

// CallbackOutcome reports which branch the state machine took
type CallbackOutcome struct {
	User               *models.User
	InvitationAccepted bool
	// PendingPayload preserves the raw provider profile for a manual
	// registration step when account resolution failed.
	PendingPayload *Profile
}

// Reconcile runs the callback state machine. Branch A: a pending
// invitation exists for the email pinned at initiation, accept it
// without a password and stamp the OAuth identity. Branch B: standard
// find-or-create by (provider, uid).
func (s *OAuthService) Reconcile(profile *Profile, stateEmail string) (*CallbackOutcome, error) {
	if stateEmail != "" {
		invited, err := s.invitations.FindPendingByEmail(stateEmail)
		if err == nil {
			if acceptErr := s.invitations.AcceptWithoutPassword(invited, profile.Provider, profile.UID, profile.Name); acceptErr != nil {
				return nil, acceptErr
			}
			return &CallbackOutcome{User: invited, InvitationAccepted: true}, nil
		}
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			return nil, err
		}
	}

	email := profile.Email
	if email == "" {
		email = stateEmail
	}
	user, err := s.users.FindOrCreateFromOAuth(profile.Provider, profile.UID, email, profile.Name)
	if err != nil {
		// Keep the provider payload around so a manual registration
		// step can resume from it.
		return &CallbackOutcome{PendingPayload: profile}, err
	}

	return &CallbackOutcome{User: user}, nil
}

// StateKey derives the log correlation field for a callback
func (s *OAuthService) StateKey(provider, email string) string {
	return fmt.Sprintf("%s:%s", provider, email)
}
