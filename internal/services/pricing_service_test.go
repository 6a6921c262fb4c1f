package services

import (
	"testing"

	"saaskit/internal/models"
	"saaskit/pkg/stripe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func registerTestPlans(t *testing.T) {
	t.Helper()
	stripe.ResetPlans()
	t.Cleanup(stripe.ResetPlans)

	stripe.RegisterPlan(stripe.Plan{
		Key: "starter", ID: "starter_test", Name: "Starter",
		Amount: int64Ptr(0), Currency: "usd", Interval: "month",
		Metadata: map[string]string{"features": "Up to 3 members|Community support"},
	})
	stripe.RegisterPlan(stripe.Plan{
		Key: "business", ID: "business_test", Name: "Business",
		Amount: int64Ptr(4900), Currency: "usd", Interval: "month",
		Metadata: map[string]string{"popular": "true", "features": "Unlimited members"},
	})
	stripe.RegisterPlan(stripe.Plan{
		Key: "enterprise", ID: "enterprise_test", Name: "Enterprise",
		Currency: "usd",
		Metadata: map[string]string{"checkout_button_label": "Contact us"},
	})
}

func TestTiersKeepCatalogOrderAndFormatting(t *testing.T) {
	registerTestPlans(t)
	svc := NewPricingService()

	tiers := svc.Tiers(nil)
	require.Len(t, tiers, 3)

	assert.Equal(t, "Starter", tiers[0].Name)
	assert.Equal(t, "$0", tiers[0].Price)
	assert.Equal(t, []string{"Up to 3 members", "Community support"}, tiers[0].Features)
	assert.False(t, tiers[0].ContactUs)

	assert.Equal(t, "Business", tiers[1].Name)
	assert.Equal(t, "$49", tiers[1].Price)
	assert.True(t, tiers[1].Popular)
	assert.Equal(t, "Subscribe", tiers[1].CheckoutButtonLabel)

	// The enterprise tier has no processor price
	assert.True(t, tiers[2].ContactUs)
	assert.Equal(t, "Custom", tiers[2].Price)
	assert.Equal(t, "Contact us", tiers[2].CheckoutButtonLabel)
}

func TestTiersMarkCurrentPlan(t *testing.T) {
	registerTestPlans(t)
	svc := NewPricingService()

	organization := &models.Organization{Name: "Acme Inc"}
	require.NoError(t, organization.SetSnapshot(&models.SubscriptionSnapshot{
		StripeSubscriptionID: "sub_1",
		Status:               models.SubscriptionStatusActive,
		CurrentPlanID:        "business_test",
	}))

	tiers := svc.Tiers(organization)
	assert.False(t, tiers[0].Current)
	assert.True(t, tiers[1].Current)
	assert.False(t, tiers[2].Current)
}
