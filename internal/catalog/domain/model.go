package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Product struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Name      string       `gorm:"not null" json:"name"`
	Amount    int64        `gorm:"not null" json:"amount"`
	Currency  string       `gorm:"not null" json:"currency"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

type ShippingOption struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Name     string       `gorm:"not null" json:"name"`
	Amount   int64        `gorm:"not null" json:"amount"`
	FreeOver *int64       `json:"free_over,omitempty"`
}

func (ShippingOption) TableName() string { return "shipping_options" }

// CartItem is the untrusted client request; only ids and quantities are read.
type CartItem struct {
	ProductID snowflake.ID `json:"product_id"`
	Quantity  int64        `json:"quantity"`
}

// PricedLine carries the server-resolved price for one cart line.
type PricedLine struct {
	ProductID   snowflake.ID
	ProductName string
	UnitAmount  int64
	Quantity    int64
}

func (l PricedLine) Subtotal() int64 {
	return l.UnitAmount * l.Quantity
}

// PricedCart is the authoritative server-side pricing of a requested cart.
type PricedCart struct {
	Lines          []PricedLine
	ItemsTotal     int64
	ShippingTotal  int64
	Currency       string
	ShippingOption *ShippingOption
}

func (c *PricedCart) Total() int64 {
	return c.ItemsTotal + c.ShippingTotal
}

type Pricer interface {
	PriceCart(ctx context.Context, tenantID snowflake.ID, items []CartItem, shippingOptionID *snowflake.ID) (*PricedCart, error)
}

type Repository interface {
	FindProducts(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, ids []snowflake.ID) ([]Product, error)
	FindShippingOption(ctx context.Context, db *gorm.DB, tenantID, optionID snowflake.ID) (*ShippingOption, error)
}
