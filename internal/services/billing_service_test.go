package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"saaskit/internal/models"
	"saaskit/pkg/config"
	apperrors "saaskit/pkg/errors"
	"saaskit/pkg/stripe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestBillingService(t *testing.T) (*BillingService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	cfg := &config.Config{}
	cfg.App.BaseURL = "https://app.example.com"
	return NewBillingService(db, NewOrganizationService(db, nil), nil, cfg), db
}

func billingEvent(t *testing.T, eventType string, object interface{}) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_test",
		Type: eventType,
		Data: stripe.EventData{Object: raw},
	}
}

func subscriptionObject(id, customer, status, priceID string) map[string]interface{} {
	return map[string]interface{}{
		"id":       id,
		"customer": customer,
		"status":   status,
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{"price": map[string]interface{}{"id": priceID}},
			},
		},
		"current_period_start": time.Now().Unix(),
		"current_period_end":   time.Now().Add(30 * 24 * time.Hour).Unix(),
		"quantity":             1,
	}
}

func seedBillingOrganization(t *testing.T, db *gorm.DB, customerID string) *models.Organization {
	t.Helper()
	organization := &models.Organization{Name: "Acme Inc", StripeCustomerID: &customerID}
	require.NoError(t, db.Create(organization).Error)
	return organization
}

func TestSubscriptionCreatedRefreshesSnapshot(t *testing.T) {
	svc, db := newTestBillingService(t)
	organization := seedBillingOrganization(t, db, "cus_1")

	event := billingEvent(t, EventCustomerSubscriptionNew,
		subscriptionObject("sub_1", "cus_1", "active", "business_test"))
	require.NoError(t, svc.HandleEvent(event))

	var reloaded models.Organization
	require.NoError(t, db.First(&reloaded, organization.ID).Error)
	snapshot := reloaded.Snapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, "sub_1", snapshot.StripeSubscriptionID)
	assert.Equal(t, "active", snapshot.Status)
	assert.Equal(t, "business_test", snapshot.CurrentPlanID)
	assert.True(t, reloaded.ActiveSubscription())
	assert.True(t, reloaded.SubscribedTo("business_test"))
}

func TestSubscriptionDeletedMatchingIDMarksCanceled(t *testing.T) {
	svc, db := newTestBillingService(t)
	organization := seedBillingOrganization(t, db, "cus_1")

	created := billingEvent(t, EventCustomerSubscriptionNew,
		subscriptionObject("sub_1", "cus_1", "active", "business_test"))
	require.NoError(t, svc.HandleEvent(created))

	deleted := billingEvent(t, EventCustomerSubscriptionGone, map[string]interface{}{
		"id":       "sub_1",
		"customer": "cus_1",
		"status":   "canceled",
		"ended_at": time.Now().Unix(),
	})
	require.NoError(t, svc.HandleEvent(deleted))

	var reloaded models.Organization
	require.NoError(t, db.First(&reloaded, organization.ID).Error)
	snapshot := reloaded.Snapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, "canceled", snapshot.Status)
	assert.NotNil(t, snapshot.CanceledAt)
	assert.NotNil(t, snapshot.EndedAt)
	// Plan id survives for display on the canceled state
	assert.Equal(t, "business_test", snapshot.CurrentPlanID)
	assert.False(t, reloaded.ActiveSubscription())
}

func TestSubscriptionDeletedStaleIDIgnored(t *testing.T) {
	svc, db := newTestBillingService(t)
	organization := seedBillingOrganization(t, db, "cus_1")

	// The customer re-subscribed: sub_2 replaced sub_1
	created := billingEvent(t, EventCustomerSubscriptionNew,
		subscriptionObject("sub_2", "cus_1", "active", "business_test"))
	require.NoError(t, svc.HandleEvent(created))

	// A late deletion event for the superseded subscription
	deleted := billingEvent(t, EventCustomerSubscriptionGone, map[string]interface{}{
		"id":       "sub_1",
		"customer": "cus_1",
		"status":   "canceled",
	})
	require.NoError(t, svc.HandleEvent(deleted))

	var reloaded models.Organization
	require.NoError(t, db.First(&reloaded, organization.ID).Error)
	snapshot := reloaded.Snapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, "sub_2", snapshot.StripeSubscriptionID)
	assert.Equal(t, "active", snapshot.Status)
	assert.True(t, reloaded.ActiveSubscription())
}

func TestCheckoutCompletedStoresCustomerID(t *testing.T) {
	svc, db := newTestBillingService(t)
	organization := &models.Organization{Name: "Acme Inc"}
	require.NoError(t, db.Create(organization).Error)

	event := billingEvent(t, EventCheckoutSessionCompleted, map[string]interface{}{
		"id":           "cs_1",
		"customer":     "cus_9",
		"subscription": "sub_9",
		"metadata":     map[string]string{"organization_id": fmt.Sprintf("%d", organization.ID)},
	})
	require.NoError(t, svc.HandleEvent(event))

	var reloaded models.Organization
	require.NoError(t, db.First(&reloaded, organization.ID).Error)
	require.NotNil(t, reloaded.StripeCustomerID)
	assert.Equal(t, "cus_9", *reloaded.StripeCustomerID)
}

func TestCheckoutSessionRejectsContactUsPlan(t *testing.T) {
	registerTestPlans(t)
	svc, db := newTestBillingService(t)
	organization := seedBillingOrganization(t, db, "cus_1")

	// The contact-us tier carries no processor price; checkout must be
	// refused before reaching the provider.
	_, err := svc.CreateCheckoutSession(context.Background(), organization, "owner@acme.com", "enterprise_test")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.CreateCheckoutSession(context.Background(), organization, "owner@acme.com", "no_such_plan")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestUnresolvableEventsAreDropped(t *testing.T) {
	svc, _ := newTestBillingService(t)

	// Unknown organization and malformed payloads must be acknowledged,
	// not errored, or the processor retries forever.
	unknown := billingEvent(t, EventCustomerSubscriptionNew,
		subscriptionObject("sub_1", "cus_missing", "active", "business_test"))
	assert.NoError(t, svc.HandleEvent(unknown))

	malformed := &stripe.Event{
		Type: EventCustomerSubscriptionNew,
		Data: stripe.EventData{Object: json.RawMessage(`"not an object"`)},
	}
	assert.NoError(t, svc.HandleEvent(malformed))

	unhandled := billingEvent(t, "invoice.paid", map[string]interface{}{"id": "in_1"})
	assert.NoError(t, svc.HandleEvent(unhandled))
}
