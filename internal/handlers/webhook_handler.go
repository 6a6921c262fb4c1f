package handlers

import (
	"io"
	"net/http"

	"saaskit/internal/services"
	"saaskit/pkg/config"
	"saaskit/pkg/logger"
	"saaskit/pkg/stripe"

	"github.com/gin-gonic/gin"
)

const webhookBodyLimit = 1 << 16

type WebhookHandler struct {
	billingService *services.BillingService
	cfg            *config.Config
}

func NewWebhookHandler(billingService *services.BillingService) *WebhookHandler {
	return &WebhookHandler{
		billingService: billingService,
		cfg:            config.GetConfig(),
	}
}

// HandleStripe verifies the webhook signature and dispatches the
// event. Signature failures are rejected; events we cannot act on are
// acknowledged so the processor stops retrying them.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, webhookBodyLimit))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	event, err := stripe.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.cfg.Stripe.SigningSecret, stripe.DefaultTolerance)
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Rejected webhook with invalid signature")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	if err := h.billingService.HandleEvent(event); err != nil {
		logger.GetLogger().WithError(err).WithField("event_id", event.ID).
			Error("Webhook processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
