package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"saaskit/internal/models"
	apperrors "saaskit/pkg/errors"
	"saaskit/pkg/config"
	"saaskit/pkg/logger"
	"saaskit/pkg/stripe"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Webhook event types consumed by the billing sync
const (
	EventCheckoutSessionCompleted  = "checkout.session.completed"
	EventCustomerSubscriptionNew   = "customer.subscription.created"
	EventCustomerSubscriptionUpd   = "customer.subscription.updated"
	EventCustomerSubscriptionGone  = "customer.subscription.deleted"
)

// BillingService reconciles processor webhook events into the
// organization's denormalized subscription snapshot and creates hosted
// checkout sessions. Handlers are registered per event type; unknown
// events and unresolvable payloads are logged and dropped, never fatal
// to the request.
type BillingService struct {
	db            *gorm.DB
	log           *logrus.Logger
	organizations *OrganizationService
	client        *stripe.Client
	cfg           *config.Config
	handlers      map[string]func(*stripe.Event) error
}

func NewBillingService(db *gorm.DB, organizations *OrganizationService, client *stripe.Client, cfg *config.Config) *BillingService {
	s := &BillingService{
		db:            db,
		log:           logger.GetLogger(),
		organizations: organizations,
		client:        client,
		cfg:           cfg,
	}
	s.handlers = map[string]func(*stripe.Event) error{
		EventCheckoutSessionCompleted: s.handleCheckoutCompleted,
		EventCustomerSubscriptionNew:  s.handleSubscriptionUpserted,
		EventCustomerSubscriptionUpd:  s.handleSubscriptionUpserted,
		EventCustomerSubscriptionGone: s.handleSubscriptionDeleted,
	}
	return s
}

// HandleEvent dispatches a verified webhook event to its handler.
// Unregistered event types are acknowledged and ignored.
func (s *BillingService) HandleEvent(event *stripe.Event) error {
	handler, ok := s.handlers[event.Type]
	if !ok {
		s.log.WithField("event_type", event.Type).Debug("Ignoring unhandled webhook event")
		return nil
	}
	return handler(event)
}

func (s *BillingService) handleCheckoutCompleted(event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		s.log.WithError(err).Error("Webhook (checkout.session.completed): malformed payload, dropping event")
		return nil
	}

	orgID, err := strconv.ParseUint(session.Metadata["organization_id"], 10, 32)
	if err != nil {
		s.log.WithField("metadata", session.Metadata).
			Error("Webhook (checkout.session.completed): missing organization reference, dropping event")
		return nil
	}

	organization, err := s.organizations.GetByID(uint(orgID))
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			s.log.WithField("organization_id", orgID).
				Error("Webhook (checkout.session.completed): organization not found, dropping event")
			return nil
		}
		return err
	}

	if session.Customer != "" && (organization.StripeCustomerID == nil || *organization.StripeCustomerID == "") {
		if err := s.db.Model(organization).Update("stripe_customer_id", session.Customer).Error; err != nil {
			return err
		}
	}

	if session.Subscription == "" {
		s.log.WithField("organization_id", organization.ID).
			Warn("Webhook (checkout.session.completed): no subscription id in checkout session")
		return nil
	}
	if s.client == nil {
		// The subscription.created event carries the snapshot instead
		s.log.WithField("organization_id", organization.ID).
			Debug("Webhook (checkout.session.completed): no billing client, skipping snapshot refresh")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	full, err := s.client.RetrieveSubscription(ctx, session.Subscription)
	if err != nil {
		s.log.WithError(err).WithField("subscription_id", session.Subscription).
			Error("Webhook (checkout.session.completed): subscription retrieval failed, dropping event")
		return nil
	}
	return s.applySnapshot(organization, full)
}

func (s *BillingService) handleSubscriptionUpserted(event *stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Object, &subscription); err != nil {
		s.log.WithError(err).WithField("event_type", event.Type).
			Error("Webhook: malformed subscription payload, dropping event")
		return nil
	}

	organization, err := s.organizationByCustomer(subscription.Customer, event.Type)
	if err != nil || organization == nil {
		return err
	}

	full, err := s.retrieveSubscription(event, subscription.ID)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event_type":      event.Type,
			"subscription_id": subscription.ID,
		}).Error("Webhook: subscription retrieval failed, dropping event")
		return nil
	}
	return s.applySnapshot(organization, full)
}

// handleSubscriptionDeleted only overwrites the snapshot when the
// stored subscription id matches the deleted one: webhook events may
// arrive out of order and a stale cancellation must not clobber a
// newer subscription's data.
func (s *BillingService) handleSubscriptionDeleted(event *stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Object, &subscription); err != nil {
		s.log.WithError(err).Error("Webhook (customer.subscription.deleted): malformed payload, dropping event")
		return nil
	}

	organization, err := s.organizationByCustomer(subscription.Customer, event.Type)
	if err != nil || organization == nil {
		return err
	}

	current := organization.Snapshot()
	if current == nil || current.StripeSubscriptionID != subscription.ID {
		s.log.WithFields(logrus.Fields{
			"organization_id": organization.ID,
			"subscription_id": subscription.ID,
		}).Info("Webhook (customer.subscription.deleted): stale deletion for a superseded subscription, ignoring")
		return nil
	}

	canceledAt := stripe.UnixTime(subscription.CanceledAt)
	if canceledAt == nil {
		now := time.Now().UTC()
		canceledAt = &now
	}

	canceled := &models.SubscriptionSnapshot{
		StripeSubscriptionID: subscription.ID,
		Status:               subscription.Status,
		CurrentPlanID:        current.CurrentPlanID,
		CurrentPeriodStart:   current.CurrentPeriodStart,
		CurrentPeriodEnd:     coalesceTime(stripe.UnixTime(subscription.CurrentPeriodEnd), current.CurrentPeriodEnd),
		CanceledAt:           canceledAt,
		EndedAt:              stripe.UnixTime(subscription.EndedAt),
	}
	if err := organization.SetSnapshot(canceled); err != nil {
		return err
	}
	if err := s.db.Model(organization).Update("stripe_subscription_details", organization.StripeSubscriptionDetails).Error; err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"organization_id": organization.ID,
		"subscription_id": subscription.ID,
		"status":          subscription.Status,
	}).Info("Webhook: subscription marked deleted")
	return nil
}

func (s *BillingService) applySnapshot(organization *models.Organization, subscription *stripe.Subscription) error {
	if subscription == nil || subscription.ID == "" {
		s.log.Error("Webhook: invalid or incomplete subscription object, dropping event")
		return nil
	}

	snapshot := &models.SubscriptionSnapshot{
		StripeSubscriptionID: subscription.ID,
		Status:               subscription.Status,
		CurrentPlanID:        subscription.CurrentPlanID(),
		CurrentPeriodStart:   stripe.UnixTime(subscription.CurrentPeriodStart),
		CurrentPeriodEnd:     stripe.UnixTime(subscription.CurrentPeriodEnd),
		TrialStart:           stripe.UnixTime(subscription.TrialStart),
		TrialEnd:             stripe.UnixTime(subscription.TrialEnd),
		CancelAtPeriodEnd:    subscription.CancelAtPeriodEnd,
		CanceledAt:           stripe.UnixTime(subscription.CanceledAt),
		EndedAt:              stripe.UnixTime(subscription.EndedAt),
		Created:              stripe.UnixTime(subscription.Created),
		BillingCycleAnchor:   stripe.UnixTime(subscription.BillingCycleAnchor),
		Quantity:             subscription.Quantity,
	}
	if err := organization.SetSnapshot(snapshot); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"stripe_subscription_details": organization.StripeSubscriptionDetails,
	}
	if subscription.Customer != "" && (organization.StripeCustomerID == nil || *organization.StripeCustomerID == "") {
		updates["stripe_customer_id"] = subscription.Customer
		customer := subscription.Customer
		organization.StripeCustomerID = &customer
	}
	if err := s.db.Model(organization).Updates(updates).Error; err != nil {
		s.log.WithError(err).WithField("organization_id", organization.ID).
			Error("Webhook: failed to save subscription snapshot")
		return err
	}

	s.log.WithFields(logrus.Fields{
		"organization_id": organization.ID,
		"subscription_id": subscription.ID,
		"status":          subscription.Status,
	}).Info("Webhook: subscription snapshot updated")
	return nil
}

func (s *BillingService) organizationByCustomer(customerID, eventType string) (*models.Organization, error) {
	if customerID == "" {
		s.log.WithField("event_type", eventType).Error("Webhook: missing customer id, dropping event")
		return nil, nil
	}
	organization, err := s.organizations.GetByStripeCustomerID(customerID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			s.log.WithFields(logrus.Fields{
				"event_type":  eventType,
				"customer_id": customerID,
			}).Error("Webhook: organization not found for customer, dropping event")
			return nil, nil
		}
		return nil, err
	}
	return organization, nil
}

// retrieveSubscription re-fetches the full subscription so the
// snapshot reflects the processor's current truth rather than a
// possibly partial event object. Without a configured client the
// event object is used as is.
func (s *BillingService) retrieveSubscription(event *stripe.Event, subscriptionID string) (*stripe.Subscription, error) {
	if s.client == nil {
		var subscription stripe.Subscription
		if err := json.Unmarshal(event.Data.Object, &subscription); err != nil {
			return nil, err
		}
		if subscription.ID == "" {
			subscription.ID = subscriptionID
		}
		return &subscription, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.client.RetrieveSubscription(ctx, subscriptionID)
}

// CreateCheckoutSession validates the plan and creates a hosted
// checkout session, returning the redirect URL.
func (s *BillingService) CreateCheckoutSession(ctx context.Context, organization *models.Organization, userEmail, planID string) (string, error) {
	plan, ok := stripe.PlanByID(planID)
	if !ok {
		return "", apperrors.Validation("plan_id", "Invalid plan selected.")
	}
	// Contact-us tiers have no processor price behind them
	if plan.Amount == nil {
		return "", apperrors.Validation("plan_id", "This plan is not available for self-serve checkout.")
	}
	if s.client == nil {
		return "", apperrors.External("Billing is not configured.", nil)
	}

	params := stripe.CheckoutSessionParams{
		PriceID:        planID,
		SuccessURL:     s.cfg.App.BaseURL + "/organization/pricing?checkout=success&subscribed_plan_id=" + planID,
		CancelURL:      s.cfg.App.BaseURL + "/organization/pricing?checkout=cancel",
		OrganizationID: organization.ID,
	}
	if organization.StripeCustomerID != nil && *organization.StripeCustomerID != "" {
		params.Customer = *organization.StripeCustomerID
	} else {
		params.CustomerEmail = userEmail
	}

	session, err := s.client.CreateCheckoutSession(ctx, params)
	if err != nil {
		s.log.WithError(err).WithField("organization_id", organization.ID).
			Error("Failed to create checkout session")
		return "", apperrors.External("Could not connect to the billing provider.", err)
	}
	return session.URL, nil
}

func coalesceTime(primary, fallback *time.Time) *time.Time {
	if primary != nil {
		return primary
	}
	return fallback
}
