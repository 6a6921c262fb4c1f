package models

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"saaskit/pkg/stripe"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Organization is the tenant: the unit of data isolation. Domain, when
// present, is globally unique and drives both enterprise SSO lookup and
// post-signup auto-association.
type Organization struct {
	BaseModel
	Name                      string         `json:"name" gorm:"not null;size:100"`
	Slug                      string         `json:"slug" gorm:"unique;not null;size:100;index"`
	Domain                    *string        `json:"domain" gorm:"unique;size:100"`
	StripeCustomerID          *string        `json:"stripe_customer_id" gorm:"size:100;index"`
	StripeSubscriptionDetails datatypes.JSON `json:"stripe_subscription_details"`

	Users []User `json:"users,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

func (o *Organization) TableName() string {
	return "organizations"
}

// Subscription statuses considered active
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusCanceled = "canceled"
)

// SubscriptionSnapshot is the denormalized copy of the billing
// processor's subscription state stored on the organization row.
type SubscriptionSnapshot struct {
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
	Status               string     `json:"status"`
	CurrentPlanID        string     `json:"current_plan_id"`
	CurrentPeriodStart   *time.Time `json:"current_period_start"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	TrialStart           *time.Time `json:"trial_start"`
	TrialEnd             *time.Time `json:"trial_end"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
	CanceledAt           *time.Time `json:"canceled_at"`
	EndedAt              *time.Time `json:"ended_at"`
	Created              *time.Time `json:"created"`
	BillingCycleAnchor   *time.Time `json:"billing_cycle_anchor"`
	Quantity             int64      `json:"quantity"`
}

// Snapshot decodes the stored subscription details, nil when the
// organization has never synced a subscription.
func (o *Organization) Snapshot() *SubscriptionSnapshot {
	if len(o.StripeSubscriptionDetails) == 0 {
		return nil
	}
	var snapshot SubscriptionSnapshot
	if err := json.Unmarshal(o.StripeSubscriptionDetails, &snapshot); err != nil {
		return nil
	}
	if snapshot.StripeSubscriptionID == "" && snapshot.Status == "" {
		return nil
	}
	return &snapshot
}

// SetSnapshot encodes the snapshot back onto the JSON column
func (o *Organization) SetSnapshot(snapshot *SubscriptionSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	o.StripeSubscriptionDetails = datatypes.JSON(data)
	return nil
}

func (o *Organization) ActiveStripeSubscriptionID() string {
	if s := o.Snapshot(); s != nil {
		return s.StripeSubscriptionID
	}
	return ""
}

func (o *Organization) CurrentStripePlanID() string {
	if s := o.Snapshot(); s != nil {
		return s.CurrentPlanID
	}
	return ""
}

// CurrentPlanName resolves the snapshot's plan id against the local
// catalog; the raw id is the fallback for plans retired from it.
func (o *Organization) CurrentPlanName() string {
	id := o.CurrentStripePlanID()
	if id == "" {
		return ""
	}
	if plan, ok := stripe.PlanByID(id); ok {
		return plan.Name
	}
	return id
}

func (o *Organization) StripeSubscriptionStatus() string {
	if s := o.Snapshot(); s != nil {
		return s.Status
	}
	return ""
}

// ActiveSubscription reports whether the snapshot status entitles the
// organization to paid features.
func (o *Organization) ActiveSubscription() bool {
	status := o.StripeSubscriptionStatus()
	return status == SubscriptionStatusActive || status == SubscriptionStatusTrialing
}

// SubscribedTo checks for an active subscription, optionally to a
// specific plan id (empty planID means any plan).
func (o *Organization) SubscribedTo(planID string) bool {
	if !o.ActiveSubscription() {
		return false
	}
	current := o.CurrentStripePlanID()
	if current == "" {
		return false
	}
	if planID == "" {
		return true
	}
	return current == planID
}

var slugSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a display name into a URL-safe slug
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugSanitizer.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// BeforeSave keeps the slug derived from the name
func (o *Organization) BeforeSave(tx *gorm.DB) error {
	if o.Name != "" {
		o.Slug = Slugify(o.Name)
	}
	return nil
}
