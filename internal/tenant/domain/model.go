package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Subscription tiers determine the platform's cut of each settled charge.
const (
	TierFree   = "free"
	TierGrowth = "growth"
	TierPro    = "pro"
)

type Tenant struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	Name             string       `gorm:"not null" json:"name"`
	Email            string       `gorm:"not null" json:"email"`
	Tier             string       `gorm:"not null;default:free" json:"tier"`
	StripeAccountID  *string      `gorm:"uniqueIndex" json:"stripe_account_id,omitempty"`
	StripeCustomerID *string      `json:"stripe_customer_id,omitempty"`
	ChargesEnabled   bool         `gorm:"not null;default:false" json:"charges_enabled"`
	PayoutsEnabled   bool         `gorm:"not null;default:false" json:"payouts_enabled"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Tenant) TableName() string { return "tenants" }

// Payable reports whether the tenant can currently accept charges.
func (t *Tenant) Payable() bool {
	return t != nil && t.StripeAccountID != nil && *t.StripeAccountID != "" && t.ChargesEnabled
}

// NormalizeTier canonicalizes a tier value. Anything unrecognized collapses
// to the free tier, which carries the highest fee rate.
func NormalizeTier(tier string) string {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case TierGrowth:
		return TierGrowth
	case TierPro:
		return TierPro
	default:
		return TierFree
	}
}

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Tenant, error)
	SetPaymentAccount(ctx context.Context, tenantID snowflake.ID, accountID string) error
	UpdateCapabilities(ctx context.Context, accountID string, chargesEnabled, payoutsEnabled bool) error
	UpdateTier(ctx context.Context, stripeCustomerID string, tier string) error
}

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tenant, error)
	FindByAccountID(ctx context.Context, db *gorm.DB, accountID string) (*Tenant, error)
	SetPaymentAccount(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, accountID string, now time.Time) (bool, error)
	UpdateCapabilities(ctx context.Context, db *gorm.DB, accountID string, chargesEnabled, payoutsEnabled bool, now time.Time) (bool, error)
	UpdateTierByCustomerID(ctx context.Context, db *gorm.DB, stripeCustomerID string, tier string, now time.Time) (bool, error)
}
