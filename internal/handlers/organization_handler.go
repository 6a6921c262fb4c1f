package handlers

import (
	"strconv"

	"saaskit/internal/middleware"
	"saaskit/internal/policy"
	"saaskit/internal/services"
	"saaskit/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct {
	organizationService *services.OrganizationService
	userService         *services.UserService
}

func NewOrganizationHandler(organizationService *services.OrganizationService, userService *services.UserService) *OrganizationHandler {
	return &OrganizationHandler{
		organizationService: organizationService,
		userService:         userService,
	}
}

// Manage returns the organization with its member list
func (h *OrganizationHandler) Manage(c *gin.Context) {
	organization := middleware.CurrentOrganization(c)

	members, err := h.organizationService.Members(organization.ID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	memberInfos := make([]UserInfo, 0, len(members))
	for i := range members {
		memberInfos = append(memberInfos, userInfo(&members[i]))
	}
	response.Success(c, gin.H{
		"organization": organization,
		"members":      memberInfos,
		"billing": gin.H{
			"subscription_id": organization.ActiveStripeSubscriptionID(),
			"status":          organization.StripeSubscriptionStatus(),
			"plan_name":       organization.CurrentPlanName(),
		},
	})
}

type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename updates the organization name; the slug follows the name
func (h *OrganizationHandler) Rename(c *gin.Context) {
	organization := middleware.CurrentOrganization(c)

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.organizationService.Rename(organization, req.Name); err != nil {
		response.AppError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Organization updated.", organization)
}

// RemoveMember deletes a member's account from the organization.
// Self-removal is always rejected, regardless of role.
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	organization := middleware.CurrentOrganization(c)

	memberID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid member id.")
		return
	}

	member, err := h.organizationService.GetMember(organization.ID, uint(memberID))
	if err != nil {
		response.AppError(c, err)
		return
	}

	if policy.IsSelfRemoval(actor, member) {
		response.Forbidden(c, policy.SelfRemovalMessage)
		return
	}
	if !policy.CanRemoveMember(actor, organization, member) {
		response.Forbidden(c, policy.DenialMessage)
		return
	}

	if err := h.organizationService.RemoveMember(actor, organization, member); err != nil {
		response.AppError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Member has been removed from the organization.", nil)
}

type OnboardingRequest struct {
	Name string `json:"name" binding:"required"`
}

// Onboard creates an organization for a signed-in user without one,
// making them its owner. The request host's domain is claimed when no
// other organization holds it.
func (h *OrganizationHandler) Onboard(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user.Onboarded() {
		response.Conflict(c, "You already belong to an organization.")
		return
	}

	var req OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	domain := middleware.RequestDomain(c)
	if existing, err := h.organizationService.GetByDomain(domain); err != nil || existing != nil {
		domain = ""
	}

	organization, err := h.organizationService.CreateWithOwner(user, req.Name, domain)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Organization created.", organization)
}
