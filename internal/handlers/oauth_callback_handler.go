package handlers

import (
	"context"
	"time"

	"saaskit/internal/services"
	"saaskit/pkg/config"
	"saaskit/pkg/jwt"
	"saaskit/pkg/logger"
	"saaskit/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const authFailedMessage = "Authentication failed. Please try again."

type OAuthCallbackHandler struct {
	oauthService *services.OAuthService
	ssoService   *services.SSOService
	jwtManager   *jwt.Manager
	cfg          *config.Config
}

func NewOAuthCallbackHandler(oauthService *services.OAuthService, ssoService *services.SSOService) *OAuthCallbackHandler {
	return &OAuthCallbackHandler{
		oauthService: oauthService,
		ssoService:   ssoService,
		jwtManager:   jwt.GetManager(),
		cfg:          config.GetConfig(),
	}
}

// Callback completes the provider round trip. The state cookie is
// read once and expired immediately, so transient sign-in state never
// survives this request on any exit path.
func (h *OAuthCallbackHandler) Callback(c *gin.Context) {
	cookieState, cookieErr := c.Cookie(ssoStateCookie)
	c.SetCookie(ssoStateCookie, "", -1, "/", "", false, true)

	provider := c.Param("provider")
	log := logger.GetLogger().WithField("provider", provider)

	if errParam := c.Query("error"); errParam != "" {
		log.WithField("provider_error", errParam).Warn("Provider returned an authorization error")
		response.Unauthorized(c, authFailedMessage)
		return
	}

	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		response.Unauthorized(c, authFailedMessage)
		return
	}

	if cookieErr != nil || cookieState != state {
		log.Warn("State cookie missing or mismatched")
		response.Unauthorized(c, authFailedMessage)
		return
	}

	claims, err := h.jwtManager.VerifyStateToken(state)
	if err != nil || claims.Provider != provider {
		log.Warn("State token invalid or bound to a different provider")
		response.Unauthorized(c, authFailedMessage)
		return
	}

	setting, err := h.ssoService.SettingForEmail(claims.Email)
	if err != nil || setting == nil {
		response.Unauthorized(c, authFailedMessage)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
	defer cancel()

	redirectURL := h.cfg.App.BaseURL + "/auth/" + provider + "/callback"
	profile, err := h.oauthService.Exchange(ctx, setting, redirectURL, code)
	if err != nil {
		log.WithError(err).WithField("state_key", h.oauthService.StateKey(provider, claims.Email)).
			Error("Token exchange failed")
		response.Unauthorized(c, authFailedMessage)
		return
	}

	outcome, err := h.oauthService.Reconcile(profile, claims.Email)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"state_key": h.oauthService.StateKey(provider, claims.Email),
		}).Error("Account resolution failed")
		response.AppError(c, err)
		return
	}

	message := "Signed in successfully."
	if outcome.InvitationAccepted {
		message = "Welcome! Your invitation has been accepted."
	}
	respondWithSession(c, h.jwtManager, outcome.User, message)
}
