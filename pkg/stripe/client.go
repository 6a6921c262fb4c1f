package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is a minimal REST client for the billing processor's API.
// All calls are blocking with a bounded timeout; callers treat a
// failure as terminal for the current request.
type Client struct {
	http *resty.Client
}

func NewClient(apiBase, secretKey string) *Client {
	http := resty.New().
		SetBaseURL(apiBase).
		SetTimeout(15 * time.Second).
		SetHeader("Authorization", "Bearer "+secretKey).
		SetHeader("Content-Type", "application/x-www-form-urlencoded")

	return &Client{http: http}
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if form != nil {
		req.SetBody(form.Encode())
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("stripe: %s %s: %w", method, path, err)
	}

	if resp.IsError() {
		apiErr := &APIError{}
		if jsonErr := json.Unmarshal(resp.Body(), apiErr); jsonErr == nil && apiErr.ErrorDetail.Message != "" {
			return apiErr
		}
		return fmt.Errorf("stripe: %s %s: status %d", method, path, resp.StatusCode())
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("stripe: decode %s response: %w", path, err)
		}
	}
	return nil
}

// RetrieveSubscription fetches the full subscription with its price
// items expanded.
func (c *Client) RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	path := "/subscriptions/" + url.PathEscape(subscriptionID) + "?expand[]=items.data.price"

	var sub Subscription
	if err := c.do(ctx, resty.MethodGet, path, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CheckoutSessionParams are the inputs for a hosted checkout session.
// Exactly one of Customer or CustomerEmail should be set.
type CheckoutSessionParams struct {
	PriceID        string
	Quantity       int64
	SuccessURL     string
	CancelURL      string
	Customer       string
	CustomerEmail  string
	OrganizationID uint
}

// CreateCheckoutSession creates a subscription-mode hosted checkout
// session carrying the organization id in metadata so the completion
// webhook can resolve the tenant.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	quantity := params.Quantity
	if quantity == 0 {
		quantity = 1
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", strconv.FormatInt(quantity, 10))
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("metadata[organization_id]", strconv.FormatUint(uint64(params.OrganizationID), 10))
	if params.Customer != "" {
		form.Set("customer", params.Customer)
	} else if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}

	var session CheckoutSession
	if err := c.do(ctx, resty.MethodPost, "/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
