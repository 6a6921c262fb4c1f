package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"saaskit/internal/services"
	"saaskit/pkg/config"
	"saaskit/pkg/stripe"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newWebhookRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewWebhookHandler(services.NewBillingService(nil, nil, nil, config.GetConfig()))
	router := gin.New()
	router.POST("/webhooks/stripe", handler.HandleStripe)
	return router
}

func TestStripeWebhookRejectsMissingSignature(t *testing.T) {
	router := newWebhookRouter()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	router := newWebhookRouter()

	payload := `{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`
	header := stripe.SignPayload([]byte(payload), "wrong-secret", time.Now())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStripeWebhookAcknowledgesVerifiedEvent(t *testing.T) {
	router := newWebhookRouter()

	payload := `{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`
	header := stripe.SignPayload([]byte(payload), config.GetConfig().Stripe.SigningSecret, time.Now())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"received":true`)
}
