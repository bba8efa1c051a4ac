package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/smallbiznis/storefront/internal/tenant/domain"
	"github.com/smallbiznis/storefront/internal/webhook/domain"
)

// Adapter verifies and parses Stripe webhook notifications.
type Adapter struct {
	webhookSecret string
}

func NewAdapter(webhookSecret string) (*Adapter, error) {
	secret := strings.TrimSpace(webhookSecret)
	if secret == "" {
		return nil, errors.New("stripe: webhook secret is required")
	}
	return &Adapter{webhookSecret: secret}, nil
}

func (a *Adapter) Provider() string {
	return "stripe"
}

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return domain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return domain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return domain.ErrInvalidSignature
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (domain.Event, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, domain.ErrInvalidPayload
	}

	eventType := strings.TrimSpace(event.Type)
	env := domain.Envelope{
		ID:         event.ID,
		EventType:  eventType,
		OccurredAt: occurredAt(event.Created),
	}

	switch eventType {
	case "checkout.session.completed":
		return parseCheckoutSession(env, event.Data.Object)
	case "customer.subscription.updated":
		return parseSubscription(env, event.Data.Object, false)
	case "customer.subscription.deleted":
		return parseSubscription(env, event.Data.Object, true)
	case "account.updated":
		return parseAccount(env, event.Data.Object)
	default:
		return domain.IgnoredEvent{Env: env}, nil
	}
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeCheckoutSession struct {
	ID             string               `json:"id"`
	AmountTotal    int64                `json:"amount_total"`
	Metadata       map[string]any       `json:"metadata"`
	CustomerDetail *stripeCustomerBrief `json:"customer_details"`
}

type stripeCustomerBrief struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type stripeSubscription struct {
	ID       string         `json:"id"`
	Customer string         `json:"customer"`
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata"`
}

type stripeAccount struct {
	ID             string `json:"id"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
}

func parseCheckoutSession(env domain.Envelope, object json.RawMessage) (domain.Event, error) {
	var session stripeCheckoutSession
	if err := json.Unmarshal(object, &session); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	out := domain.CheckoutCompleted{Env: env, AmountTotal: session.AmountTotal}
	if session.CustomerDetail != nil {
		out.CustomerName = strings.TrimSpace(session.CustomerDetail.Name)
		out.CustomerEmail = strings.TrimSpace(session.CustomerDetail.Email)
	}

	orderID, okOrder := parseSnowflakeMetadata(session.Metadata, "order_id")
	tenantID, okTenant := parseSnowflakeMetadata(session.Metadata, "tenant_id")
	if !okOrder || !okTenant {
		// Sessions created outside this system have no order reference.
		return out, nil
	}
	out.OrderID = orderID
	out.TenantID = tenantID
	out.HasOrderRef = true
	return out, nil
}

func parseSubscription(env domain.Envelope, object json.RawMessage, deleted bool) (domain.Event, error) {
	var sub stripeSubscription
	if err := json.Unmarshal(object, &sub); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	customerID := strings.TrimSpace(sub.Customer)
	if customerID == "" {
		return nil, domain.ErrInvalidPayload
	}

	tier := tenantdomain.TierFree
	if !deleted {
		tier = tenantdomain.NormalizeTier(readMetadataValue(sub.Metadata, "tier"))
		// A subscription that is no longer collecting reverts the merchant
		// to the free rate regardless of its plan metadata.
		switch strings.TrimSpace(sub.Status) {
		case "canceled", "unpaid", "incomplete_expired":
			tier = tenantdomain.TierFree
		}
	}

	return domain.SubscriptionUpdated{
		Env:              env,
		StripeCustomerID: customerID,
		Tier:             tier,
	}, nil
}

func parseAccount(env domain.Envelope, object json.RawMessage) (domain.Event, error) {
	var account stripeAccount
	if err := json.Unmarshal(object, &account); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(account.ID) == "" {
		return nil, domain.ErrInvalidPayload
	}
	return domain.AccountUpdated{
		Env:            env,
		AccountID:      account.ID,
		ChargesEnabled: account.ChargesEnabled,
		PayoutsEnabled: account.PayoutsEnabled,
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func occurredAt(created int64) time.Time {
	if created == 0 {
		return time.Now().UTC()
	}
	return time.Unix(created, 0).UTC()
}

func parseSnowflakeMetadata(metadata map[string]any, key string) (snowflake.ID, bool) {
	raw := readMetadataValue(metadata, key)
	if raw == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

func readMetadataValue(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	value, ok := metadata[key]
	if !ok {
		return ""
	}
	switch cast := value.(type) {
	case string:
		return strings.TrimSpace(cast)
	case float64:
		if cast == 0 {
			return ""
		}
		return strconv.FormatInt(int64(cast), 10)
	case json.Number:
		return cast.String()
	case int64:
		return strconv.FormatInt(cast, 10)
	case int:
		return strconv.Itoa(cast)
	}
	return ""
}
