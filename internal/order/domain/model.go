package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusFulfilled = "fulfilled"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

type Order struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID        snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Status          string       `gorm:"not null;default:pending" json:"status"`
	Currency        string       `gorm:"not null" json:"currency"`
	ItemsAmount     int64        `gorm:"not null" json:"items_amount"`
	ShippingAmount  int64        `gorm:"not null" json:"shipping_amount"`
	TotalAmount     int64        `gorm:"not null" json:"total_amount"`
	FeeAmount       int64        `gorm:"not null" json:"fee_amount"`
	CustomerName    string       `json:"customer_name,omitempty"`
	CustomerEmail   string       `json:"customer_email,omitempty"`
	StripeSessionID *string      `json:"stripe_session_id,omitempty"`
	PaidAt          *time.Time   `json:"paid_at,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// OrderItem snapshots the unit price at the time of order; later catalog
// edits never change what an order charged.
type OrderItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID     snowflake.ID `gorm:"not null;index" json:"order_id"`
	ProductID   snowflake.ID `gorm:"not null" json:"product_id"`
	ProductName string       `gorm:"not null" json:"product_name"`
	UnitAmount  int64        `gorm:"not null" json:"unit_amount"`
	Quantity    int64        `gorm:"not null" json:"quantity"`
}

func (OrderItem) TableName() string { return "order_items" }

type CustomerContact struct {
	Name  string
	Email string
}

type Service interface {
	CreatePending(ctx context.Context, tenantID snowflake.ID, priced *catalogdomain.PricedCart, fee int64) (*Order, error)
	AttachSession(ctx context.Context, orderID, tenantID snowflake.ID, sessionID string) error
	MarkPaid(ctx context.Context, orderID, tenantID snowflake.ID, contact CustomerContact, confirmedTotal int64) error
	MarkFulfilled(ctx context.Context, orderID, tenantID snowflake.ID) error
	MarkCancelled(ctx context.Context, orderID, tenantID snowflake.ID) error
	Get(ctx context.Context, orderID, tenantID snowflake.ID) (*Order, []OrderItem, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order, items []OrderItem) error
	Find(ctx context.Context, db *gorm.DB, orderID, tenantID snowflake.ID) (*Order, error)
	FindItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderItem, error)
	AttachSession(ctx context.Context, db *gorm.DB, orderID, tenantID snowflake.ID, sessionID string, now time.Time) (bool, error)
	MarkPaid(ctx context.Context, db *gorm.DB, orderID, tenantID snowflake.ID, contact CustomerContact, now time.Time) (bool, error)
	Transition(ctx context.Context, db *gorm.DB, orderID, tenantID snowflake.ID, from, to string, now time.Time) (bool, error)
}
