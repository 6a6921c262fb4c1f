package main

import (
	"saaskit/pkg/config"
	"saaskit/pkg/stripe"
)

func int64Ptr(v int64) *int64 { return &v }

// registerPlans declares the local plan catalog. Price ids are suffixed
// per environment so development and production map to distinct
// processor prices.
func registerPlans(cfg *config.Config) {
	stripe.ResetPlans()

	stripe.RegisterPlan(stripe.Plan{
		Key:      "starter",
		ID:       "starter_" + cfg.Stripe.PlanSuffix,
		Name:     "Starter",
		Amount:   int64Ptr(0),
		Currency: "usd",
		Interval: "month",
		Metadata: map[string]string{
			"features":              "Up to 3 members|Community support|Core features",
			"checkout_button_label": "Get started",
		},
	})

	stripe.RegisterPlan(stripe.Plan{
		Key:      "business",
		ID:       "business_" + cfg.Stripe.PlanSuffix,
		Name:     "Business",
		Amount:   int64Ptr(4900),
		Currency: "usd",
		Interval: "month",
		Metadata: map[string]string{
			"features":              "Unlimited members|Priority support|Enterprise single sign-on|Advanced roles",
			"popular":               "true",
			"checkout_button_label": "Subscribe",
		},
	})

	stripe.RegisterPlan(stripe.Plan{
		Key:      "enterprise",
		ID:       "enterprise_" + cfg.Stripe.PlanSuffix,
		Name:     "Enterprise",
		Amount:   nil,
		Currency: "usd",
		Metadata: map[string]string{
			"features":              "Everything in Business|Dedicated support|Custom contracts|SLA",
			"checkout_button_label": "Contact us",
		},
	})
}
