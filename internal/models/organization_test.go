package models

import (
	"testing"
	"time"

	"saaskit/pkg/stripe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Acme Inc":           "acme-inc",
		"  Acme   Inc  ":     "acme-inc",
		"Acme, Inc. (2024)":  "acme-inc-2024",
		"ACME":               "acme",
		"--weird--input--":   "weird-input",
		"Ümläut Heavy GmbH!": "ml-ut-heavy-gmbh",
	}
	for name, expected := range tests {
		assert.Equal(t, expected, Slugify(name), "name %q", name)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	organization := &Organization{Name: "Acme Inc"}
	assert.Nil(t, organization.Snapshot())

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	require.NoError(t, organization.SetSnapshot(&SubscriptionSnapshot{
		StripeSubscriptionID: "sub_1",
		Status:               SubscriptionStatusActive,
		CurrentPlanID:        "business_test",
		CurrentPeriodEnd:     &periodEnd,
		Quantity:             2,
	}))

	snapshot := organization.Snapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, "sub_1", snapshot.StripeSubscriptionID)
	assert.Equal(t, "business_test", snapshot.CurrentPlanID)
	require.NotNil(t, snapshot.CurrentPeriodEnd)
	assert.Equal(t, periodEnd.Unix(), snapshot.CurrentPeriodEnd.Unix())
	assert.Equal(t, int64(2), snapshot.Quantity)
}

func TestCurrentPlanNameResolvesCatalog(t *testing.T) {
	stripe.ResetPlans()
	t.Cleanup(stripe.ResetPlans)
	amount := int64(4900)
	stripe.RegisterPlan(stripe.Plan{
		Key: "business", ID: "business_test", Name: "Business",
		Amount: &amount, Currency: "usd", Interval: "month",
	})

	organization := &Organization{Name: "Acme Inc"}
	assert.Empty(t, organization.CurrentPlanName())
	assert.Empty(t, organization.ActiveStripeSubscriptionID())

	require.NoError(t, organization.SetSnapshot(&SubscriptionSnapshot{
		StripeSubscriptionID: "sub_1",
		Status:               SubscriptionStatusActive,
		CurrentPlanID:        "business_test",
	}))
	assert.Equal(t, "Business", organization.CurrentPlanName())
	assert.Equal(t, "sub_1", organization.ActiveStripeSubscriptionID())

	// A plan retired from the catalog still renders its id
	require.NoError(t, organization.SetSnapshot(&SubscriptionSnapshot{
		StripeSubscriptionID: "sub_1",
		Status:               SubscriptionStatusActive,
		CurrentPlanID:        "legacy_test",
	}))
	assert.Equal(t, "legacy_test", organization.CurrentPlanName())
}

func TestSubscribedTo(t *testing.T) {
	organization := &Organization{Name: "Acme Inc"}
	assert.False(t, organization.SubscribedTo(""))

	require.NoError(t, organization.SetSnapshot(&SubscriptionSnapshot{
		StripeSubscriptionID: "sub_1",
		Status:               SubscriptionStatusTrialing,
		CurrentPlanID:        "business_test",
	}))
	assert.True(t, organization.ActiveSubscription())
	assert.True(t, organization.SubscribedTo("business_test"))
	assert.True(t, organization.SubscribedTo(""))
	assert.False(t, organization.SubscribedTo("starter_test"))

	require.NoError(t, organization.SetSnapshot(&SubscriptionSnapshot{
		StripeSubscriptionID: "sub_1",
		Status:               SubscriptionStatusCanceled,
		CurrentPlanID:        "business_test",
	}))
	assert.False(t, organization.ActiveSubscription())
	assert.False(t, organization.SubscribedTo("business_test"))
}

func TestInvitationPending(t *testing.T) {
	token := DigestInvitationToken("raw")
	now := time.Now()

	pending := &User{InvitationToken: &token}
	assert.True(t, pending.InvitationPending())

	accepted := &User{InvitationToken: &token, InvitationAcceptedAt: &now}
	assert.False(t, accepted.InvitationPending())

	assert.False(t, (&User{}).InvitationPending())
}

func TestDigestInvitationTokenIsStable(t *testing.T) {
	first := DigestInvitationToken("raw-token")
	second := DigestInvitationToken("raw-token")
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, DigestInvitationToken("other"))
	assert.NotContains(t, first, "raw-token")
}
