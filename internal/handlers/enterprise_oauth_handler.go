package handlers

import (
	"saaskit/internal/services"
	"saaskit/pkg/config"
	apperrors "saaskit/pkg/errors"
	"saaskit/pkg/jwt"
	"saaskit/pkg/response"

	"github.com/gin-gonic/gin"
)

// ssoStateCookie carries the state token across the provider round
// trip so the callback can bind it to the initiating browser.
const ssoStateCookie = "sso_state"

const ssoStateCookieMaxAge = 600 // seconds

type EnterpriseOauthHandler struct {
	ssoService *services.SSOService
	jwtManager *jwt.Manager
	cfg        *config.Config
}

func NewEnterpriseOauthHandler(ssoService *services.SSOService) *EnterpriseOauthHandler {
	return &EnterpriseOauthHandler{
		ssoService: ssoService,
		jwtManager: jwt.GetManager(),
		cfg:        config.GetConfig(),
	}
}

// CheckDomain reports whether the email's domain has enterprise
// single sign-on configured, and the identity provider's display name
// when it does.
func (h *EnterpriseOauthHandler) CheckDomain(c *gin.Context) {
	check, err := h.ssoService.CheckEmail(c.Query("email"))
	if err != nil {
		// A malformed email still reports configured:false alongside
		// the validation message.
		if check != nil && apperrors.KindOf(err) == apperrors.KindValidation {
			response.ErrorWithData(c, apperrors.CodeUnprocessable, err.Error(), check)
			return
		}
		response.AppError(c, err)
		return
	}
	response.Success(c, check)
}

type InitiateRequest struct {
	Email string `json:"email" binding:"required"`
}

// Initiate begins the enterprise sign-in flow: the response carries
// the provider authorization URL and a state cookie binds the round
// trip to this browser.
func (h *EnterpriseOauthHandler) Initiate(c *gin.Context) {
	var req InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	setting, err := h.ssoService.SettingForEmail(req.Email)
	if err != nil {
		response.AppError(c, err)
		return
	}
	if setting == nil {
		response.BadRequest(c, "Enterprise single sign-on is not configured for this domain.")
		return
	}

	state, err := h.jwtManager.GenerateStateToken(setting.Provider, req.Email)
	if err != nil {
		response.ServerError(c, "Failed to start sign-in.")
		return
	}

	redirectURL := h.callbackURL(setting.Provider)
	authorizationURL := h.ssoService.AuthCodeURL(setting, redirectURL, state, req.Email)

	c.SetCookie(ssoStateCookie, state, ssoStateCookieMaxAge, "/", "", false, true)
	response.Success(c, gin.H{
		"provider":          setting.Provider,
		"idp_name":          setting.IdpName(),
		"authorization_url": authorizationURL,
	})
}

func (h *EnterpriseOauthHandler) callbackURL(provider string) string {
	return h.cfg.App.BaseURL + "/auth/" + provider + "/callback"
}
