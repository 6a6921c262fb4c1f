package handlers

import (
	"saaskit/internal/middleware"
	"saaskit/internal/policy"
	"saaskit/internal/services"
	"saaskit/pkg/jwt"
	"saaskit/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvitationHandler struct {
	invitationService *services.InvitationService
	ssoService        *services.SSOService
	jwtManager        *jwt.Manager
}

func NewInvitationHandler(invitationService *services.InvitationService, ssoService *services.SSOService) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
		ssoService:        ssoService,
		jwtManager:        jwt.GetManager(),
	}
}

type InviteRequest struct {
	Email string `json:"email" binding:"required"`
}

// Create invites an email to the current organization
func (h *InvitationHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	organization := middleware.CurrentOrganization(c)

	if !policy.Can(user, organization, policy.ActionInviteMember) {
		response.Forbidden(c, policy.DenialMessage)
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	outcome, err := h.invitationService.Invite(user, organization, req.Email)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMessage(c, outcome.Message, outcome)
}

// Show resolves an invitation token to the invitee's details so the
// acceptance form can be prefilled. Invitees on an enterprise SSO
// domain never set a password; they are pointed at the identity
// provider instead, and acceptance happens in the OAuth callback.
func (h *InvitationHandler) Show(c *gin.Context) {
	user, err := h.invitationService.FindByToken(c.Query("token"))
	if err != nil {
		response.AppError(c, err)
		return
	}

	organizationName := ""
	if user.Organization != nil {
		organizationName = user.Organization.Name
	}

	payload := gin.H{
		"email":        user.Email,
		"organization": organizationName,
		"sso_required": false,
	}
	if setting, err := h.ssoService.SettingForEmail(user.Email); err == nil && setting != nil {
		payload["sso_required"] = true
		payload["provider"] = setting.Provider
		payload["idp_name"] = setting.IdpName()
	}
	response.Success(c, payload)
}

type AcceptRequest struct {
	Token                string `json:"token" binding:"required"`
	Password             string `json:"password" binding:"required"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
}

// Accept consumes the invitation and signs the new member in
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	user, err := h.invitationService.AcceptWithPassword(req.Token, req.Password, req.PasswordConfirmation)
	if err != nil {
		response.AppError(c, err)
		return
	}

	respondWithSession(c, h.jwtManager, user, "Welcome! Your invitation has been accepted.")
}
