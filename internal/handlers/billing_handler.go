package handlers

import (
	"net/http"

	"saaskit/internal/middleware"
	"saaskit/internal/policy"
	"saaskit/internal/services"
	"saaskit/pkg/response"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingService *services.BillingService
	pricingService *services.PricingService
}

func NewBillingHandler(billingService *services.BillingService, pricingService *services.PricingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		pricingService: pricingService,
	}
}

// Pricing renders the plan catalog with the synthetic enterprise tier.
// A checkout=success|cancel query parameter carries the post-checkout
// flash.
func (h *BillingHandler) Pricing(c *gin.Context) {
	user := middleware.CurrentUser(c)
	organization := middleware.CurrentOrganization(c)

	if !policy.Can(user, organization, policy.ActionViewBilling) {
		response.Forbidden(c, policy.DenialMessage)
		return
	}

	flash := ""
	switch c.Query("checkout") {
	case "success":
		flash = "Thanks for subscribing! Your plan is now active."
	case "cancel":
		flash = "Checkout was canceled. You have not been charged."
	}

	response.Success(c, gin.H{
		"tiers": h.pricingService.Tiers(organization),
		"flash": flash,
	})
}

// CheckoutSession validates the plan and redirects to hosted checkout
func (h *BillingHandler) CheckoutSession(c *gin.Context) {
	user := middleware.CurrentUser(c)
	organization := middleware.CurrentOrganization(c)

	if !policy.Can(user, organization, policy.ActionViewBilling) {
		response.Forbidden(c, policy.DenialMessage)
		return
	}

	checkoutURL, err := h.billingService.CreateCheckoutSession(c.Request.Context(), organization, user.Email, c.Query("plan_id"))
	if err != nil {
		response.AppError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, checkoutURL)
}
