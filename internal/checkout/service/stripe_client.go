package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/storefront/internal/checkout/domain"
)

type stripeSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type stripeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newStripeClient(apiKey string) *stripeClient {
	return &stripeClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: "https://api.stripe.com",
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

// CreateCheckoutSession requests a hosted Checkout Session configured as a
// destination charge against the merchant's connected account.
func (c *stripeClient) CreateCheckoutSession(ctx context.Context, params domain.SessionParams) (*domain.ProcessorSession, error) {
	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	if params.CustomerEmail != "" {
		values.Set("customer_email", params.CustomerEmail)
	}

	currency := strings.ToLower(params.Currency)
	for i, line := range params.Lines {
		prefix := fmt.Sprintf("line_items[%d]", i)
		values.Set(prefix+"[quantity]", strconv.FormatInt(line.Quantity, 10))
		values.Set(prefix+"[price_data][currency]", currency)
		values.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(line.UnitAmount, 10))
		values.Set(prefix+"[price_data][product_data][name]", line.ProductName)
	}
	if params.ShippingAmount > 0 {
		prefix := fmt.Sprintf("line_items[%d]", len(params.Lines))
		name := strings.TrimSpace(params.ShippingName)
		if name == "" {
			name = "Shipping"
		}
		values.Set(prefix+"[quantity]", "1")
		values.Set(prefix+"[price_data][currency]", currency)
		values.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(params.ShippingAmount, 10))
		values.Set(prefix+"[price_data][product_data][name]", name)
	}

	values.Set("payment_intent_data[application_fee_amount]", strconv.FormatInt(params.ApplicationFee, 10))
	values.Set("payment_intent_data[transfer_data][destination]", params.ConnectedAccountID)

	values.Set("metadata[order_id]", params.OrderID.String())
	values.Set("metadata[tenant_id]", params.TenantID.String())
	values.Set("payment_intent_data[metadata][order_id]", params.OrderID.String())
	values.Set("payment_intent_data[metadata][tenant_id]", params.TenantID.String())

	return c.doRequest(ctx, "/v1/checkout/sessions", values, "order:"+params.OrderID.String())
}

func (c *stripeClient) doRequest(ctx context.Context, path string, values url.Values, idempotencyKey string) (*domain.ProcessorSession, error) {
	if c.apiKey == "" {
		return nil, domain.ErrProcessor
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return nil, errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return nil, errors.New(message)
	}

	var session stripeSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	if session.ID == "" || session.URL == "" {
		return nil, errors.New("stripe_response_invalid")
	}
	return &domain.ProcessorSession{ID: session.ID, URL: session.URL}, nil
}
