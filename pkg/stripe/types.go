package stripe

import (
	"encoding/json"
	"time"
)

// Subscription mirrors the fields of the processor's subscription
// object that the application reads. Timestamps are unix seconds and
// zero when absent.
type Subscription struct {
	ID                 string               `json:"id"`
	Customer           string               `json:"customer"`
	Status             string               `json:"status"`
	Items              SubscriptionItemList `json:"items"`
	CurrentPeriodStart int64                `json:"current_period_start"`
	CurrentPeriodEnd   int64                `json:"current_period_end"`
	TrialStart         int64                `json:"trial_start"`
	TrialEnd           int64                `json:"trial_end"`
	CancelAtPeriodEnd  bool                 `json:"cancel_at_period_end"`
	CanceledAt         int64                `json:"canceled_at"`
	EndedAt            int64                `json:"ended_at"`
	Created            int64                `json:"created"`
	BillingCycleAnchor int64                `json:"billing_cycle_anchor"`
	Quantity           int64                `json:"quantity"`
}

type SubscriptionItemList struct {
	Data []SubscriptionItem `json:"data"`
}

type SubscriptionItem struct {
	ID       string `json:"id"`
	Price    Price  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type Price struct {
	ID         string            `json:"id"`
	UnitAmount int64             `json:"unit_amount"`
	Currency   string            `json:"currency"`
	Nickname   string            `json:"nickname"`
	Metadata   map[string]string `json:"metadata"`
}

// CurrentPlanID is the price id of the first subscription item, the
// denormalized "current plan" stored on the organization.
func (s *Subscription) CurrentPlanID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}

// CheckoutSession is the hosted checkout session object
type CheckoutSession struct {
	ID           string            `json:"id"`
	URL          string            `json:"url"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// Event is a webhook event envelope; Data.Object stays raw until the
// registered handler decodes it per event type.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Created int64     `json:"created"`
	Data    EventData `json:"data"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}

// APIError is the processor's error envelope
type APIError struct {
	ErrorDetail struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *APIError) Error() string {
	if e.ErrorDetail.Message != "" {
		return e.ErrorDetail.Message
	}
	return "stripe: request failed"
}

// UnixTime converts a unix-seconds field to a *time.Time, nil when the
// field was absent from the payload.
func UnixTime(seconds int64) *time.Time {
	if seconds == 0 {
		return nil
	}
	t := time.Unix(seconds, 0).UTC()
	return &t
}
