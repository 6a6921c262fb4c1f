package handlers

import (
	"saaskit/internal/middleware"
	"saaskit/internal/models"
	"saaskit/internal/services"
	"saaskit/pkg/jwt"
	"saaskit/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService *services.UserService
	jwtManager  *jwt.Manager
}

func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtManager:  jwt.GetManager(),
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SessionResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

type UserInfo struct {
	ID              uint   `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	OrganizationID  uint   `json:"organization_id"`
	IsPlatformAdmin bool   `json:"is_platform_admin"`
	Onboarded       bool   `json:"onboarded"`
}

func userInfo(user *models.User) UserInfo {
	info := UserInfo{
		ID:              user.ID,
		Email:           user.Email,
		Name:            user.Name,
		Role:            user.Role.String(),
		IsPlatformAdmin: user.PlatformAdmin(),
		Onboarded:       user.Onboarded(),
	}
	if user.OrganizationID != nil {
		info.OrganizationID = *user.OrganizationID
	}
	return info
}

// Register creates an account; sign-up on a claimed domain joins that
// organization as a member.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	user, err := h.userService.Register(&req, middleware.RequestDomain(c))
	if err != nil {
		response.AppError(c, err)
		return
	}

	h.respondWithSession(c, user, "Welcome! Your account has been created.")
}

// Login authenticates by email and password and issues a session token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	user, err := h.userService.Authenticate(req.Email, req.Password)
	if err != nil {
		response.AppError(c, err)
		return
	}

	h.respondWithSession(c, user, "Signed in successfully.")
}

// Logout acknowledges sign-out; the token simply stops being presented.
func (h *AuthHandler) Logout(c *gin.Context) {
	response.SuccessWithMessage(c, "Signed out successfully.", nil)
}

// Me returns the current session's user
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "Please sign in to continue.")
		return
	}
	response.Success(c, userInfo(user))
}

func (h *AuthHandler) respondWithSession(c *gin.Context, user *models.User, message string) {
	respondWithSession(c, h.jwtManager, user, message)
}

// respondWithSession issues a session token for the user and writes
// the standard sign-in payload.
func respondWithSession(c *gin.Context, jwtManager *jwt.Manager, user *models.User, message string) {
	var organizationID uint
	if user.OrganizationID != nil {
		organizationID = *user.OrganizationID
	}
	token, err := jwtManager.GenerateToken(user.ID, organizationID, user.Email, int(user.Role), user.PlatformAdmin())
	if err != nil {
		response.ServerError(c, "Failed to create session.")
		return
	}
	response.SuccessWithMessage(c, message, SessionResponse{Token: token, User: userInfo(user)})
}
