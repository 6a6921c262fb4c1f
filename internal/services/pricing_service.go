package services

import (
	"fmt"
	"strings"

	"saaskit/internal/models"
	"saaskit/pkg/stripe"
)

// PricingTier is one entry of the rendered pricing page: a catalog
// plan enriched with display metadata, plus the synthetic "Contact us"
// enterprise tier that has no processor price.
type PricingTier struct {
	PlanID              string   `json:"plan_id,omitempty"`
	Name                string   `json:"name"`
	Price               string   `json:"price"`
	Interval            string   `json:"interval,omitempty"`
	Features            []string `json:"features"`
	Popular             bool     `json:"popular"`
	Current             bool     `json:"current"`
	ContactUs           bool     `json:"contact_us"`
	CheckoutButtonLabel string   `json:"checkout_button_label"`
}

type PricingService struct{}

func NewPricingService() *PricingService {
	return &PricingService{}
}

// Tiers builds the pricing page model from the local plan catalog,
// marking the organization's currently subscribed plan.
func (s *PricingService) Tiers(organization *models.Organization) []PricingTier {
	plans := stripe.AllPlans()
	tiers := make([]PricingTier, 0, len(plans))
	for _, plan := range plans {
		tier := PricingTier{
			PlanID:              plan.ID,
			Name:                plan.Name,
			Price:               formatAmount(plan.Amount, plan.Currency),
			Interval:            plan.Interval,
			Features:            splitFeatures(plan.Metadata["features"]),
			Popular:             plan.Metadata["popular"] == "true",
			CheckoutButtonLabel: plan.Metadata["checkout_button_label"],
			ContactUs:           plan.Amount == nil,
		}
		if tier.CheckoutButtonLabel == "" {
			tier.CheckoutButtonLabel = "Subscribe"
		}
		if organization != nil {
			tier.Current = organization.SubscribedTo(plan.ID)
		}
		tiers = append(tiers, tier)
	}
	return tiers
}

func formatAmount(cents *int64, currency string) string {
	if cents == nil {
		return "Custom"
	}
	symbol := "$"
	if currency != "" && strings.ToLower(currency) != "usd" {
		symbol = strings.ToUpper(currency) + " "
	}
	if *cents%100 == 0 {
		return fmt.Sprintf("%s%d", symbol, *cents/100)
	}
	return fmt.Sprintf("%s%.2f", symbol, float64(*cents)/100)
}

func splitFeatures(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	features := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			features = append(features, trimmed)
		}
	}
	return features
}
