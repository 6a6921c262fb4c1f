package middleware

import (
	"strings"

	"saaskit/internal/models"
	"saaskit/internal/policy"
	"saaskit/internal/services"
	"saaskit/pkg/jwt"
	"saaskit/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys set by the auth middleware
const (
	ContextKeyUser            = "user"
	ContextKeyUserID          = "user_id"
	ContextKeyOrganization    = "current_organization"
	ContextKeyIsPlatformAdmin = "is_platform_admin"
	ContextKeyClaims          = "claims"
)

type AuthMiddleware struct {
	userService *services.UserService
	jwtManager  *jwt.Manager
}

func NewAuthMiddleware(db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		userService: services.NewUserService(db),
		jwtManager:  jwt.GetManager(),
	}
}

// RequireLogin verifies the bearer token, loads the user and stores
// the session context (user, organization, platform-admin flag).
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Please sign in to continue.")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "Malformed authorization header.")
			c.Abort()
			return
		}
		tokenString := authHeader[7:]

		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Session is invalid or has expired.")
			c.Abort()
			return
		}

		user, err := m.userService.GetByID(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "Session is invalid or has expired.")
			c.Abort()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyIsPlatformAdmin, user.PlatformAdmin())
		c.Set(ContextKeyClaims, claims)
		if user.Organization != nil {
			c.Set(ContextKeyOrganization, user.Organization)
		}

		c.Next()
	}
}

// RequireOrganization ensures the signed-in user has completed
// onboarding and belongs to an organization.
func (m *AuthMiddleware) RequireOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentOrganization(c) == nil {
			response.Forbidden(c, "You must belong to an organization to perform this action.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireManager gates management surfaces: platform admins pass, org
// members must hold the admin or owner role.
func (m *AuthMiddleware) RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		organization := CurrentOrganization(c)
		if user == nil || !policy.Can(user, organization, policy.ActionManageOrganization) {
			response.Forbidden(c, policy.DenialMessage)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user from the request context,
// nil when unauthenticated.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// CurrentOrganization returns the resolved tenant for this request,
// nil for platform admins and not-yet-onboarded users.
func CurrentOrganization(c *gin.Context) *models.Organization {
	value, exists := c.Get(ContextKeyOrganization)
	if !exists {
		return nil
	}
	organization, ok := value.(*models.Organization)
	if !ok {
		return nil
	}
	return organization
}
