package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
)

// CheckoutRequest is the storefront client's checkout submission. Prices are
// deliberately absent; the server recomputes them from the catalog.
type CheckoutRequest struct {
	TenantID         snowflake.ID
	Items            []catalogdomain.CartItem
	ShippingOptionID *snowflake.ID
	CustomerEmail    string
	SuccessURL       string
	CancelURL        string
}

// CheckoutSession is the hosted payment session the client is redirected to.
type CheckoutSession struct {
	OrderID     snowflake.ID
	SessionID   string
	RedirectURL string
	TotalAmount int64
	FeeAmount   int64
}

type Service interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// SessionParams is the processor-side configuration of one destination
// charge: the customer pays Total, the platform keeps ApplicationFee, the
// remainder transfers to the merchant's connected account.
type SessionParams struct {
	OrderID            snowflake.ID
	TenantID           snowflake.ID
	ConnectedAccountID string
	Currency           string
	Lines              []catalogdomain.PricedLine
	ShippingName       string
	ShippingAmount     int64
	ApplicationFee     int64
	CustomerEmail      string
	SuccessURL         string
	CancelURL          string
}

// ProcessorSession is the processor's response to a session request.
type ProcessorSession struct {
	ID  string
	URL string
}

// ProcessorClient requests hosted payment sessions from the payment
// processor. It is an interface so tests can run against a fake.
type ProcessorClient interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*ProcessorSession, error)
}
