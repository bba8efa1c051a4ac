package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusReceived  = "received"
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// EventRecord is the idempotency ledger row for one processor notification.
// The unique (provider, provider_event_id) pair is the dedup signal.
type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider        string         `json:"provider" gorm:"type:text;not null"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	Status          string         `json:"status" gorm:"type:text;not null"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (EventRecord) TableName() string { return "payment_events" }

// Envelope carries the identity fields shared by every event variant.
type Envelope struct {
	ID         string
	EventType  string
	OccurredAt time.Time
}

// Event is a parsed processor notification. Exactly one of the variants
// below implements it per notification.
type Event interface {
	Envelope() Envelope
}

// CheckoutCompleted confirms a hosted checkout session was paid.
type CheckoutCompleted struct {
	Env           Envelope
	OrderID       snowflake.ID
	TenantID      snowflake.ID
	AmountTotal   int64
	CustomerName  string
	CustomerEmail string
	// HasOrderRef is false when the session carried no order metadata;
	// such events are recorded as skipped, not failed.
	HasOrderRef bool
}

func (e CheckoutCompleted) Envelope() Envelope { return e.Env }

// SubscriptionUpdated reflects a change to the merchant's platform
// subscription, keyed by the processor's billing customer id.
type SubscriptionUpdated struct {
	Env              Envelope
	StripeCustomerID string
	Tier             string
}

func (e SubscriptionUpdated) Envelope() Envelope { return e.Env }

// AccountUpdated carries the full current capability state of a connected
// account. It is keyed by account id; checkout metadata does not apply here.
type AccountUpdated struct {
	Env            Envelope
	AccountID      string
	ChargesEnabled bool
	PayoutsEnabled bool
}

func (e AccountUpdated) Envelope() Envelope { return e.Env }

// IgnoredEvent is the explicit fallthrough for categories this system does
// not handle. It is recorded and acknowledged, never an error.
type IgnoredEvent struct {
	Env Envelope
}

func (e IgnoredEvent) Envelope() Envelope { return e.Env }

// Adapter verifies and parses one processor's notification format.
type Adapter interface {
	Provider() string
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (Event, error)
}

type Service interface {
	IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error
}

type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*EventRecord, error)
	SetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string, processedAt time.Time) error
}
