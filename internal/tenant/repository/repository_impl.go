package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Tenant, error) {
	var item domain.Tenant
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, tier, stripe_account_id, stripe_customer_id,
			charges_enabled, payouts_enabled, created_at, updated_at
		 FROM tenants
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByAccountID(ctx context.Context, db *gorm.DB, accountID string) (*domain.Tenant, error) {
	var item domain.Tenant
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, tier, stripe_account_id, stripe_customer_id,
			charges_enabled, payouts_enabled, created_at, updated_at
		 FROM tenants
		 WHERE stripe_account_id = ?
		 LIMIT 1`,
		accountID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) SetPaymentAccount(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, accountID string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE tenants
		 SET stripe_account_id = ?, updated_at = ?
		 WHERE id = ? AND stripe_account_id IS NULL`,
		accountID,
		now,
		tenantID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) UpdateCapabilities(ctx context.Context, db *gorm.DB, accountID string, chargesEnabled, payoutsEnabled bool, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE tenants
		 SET charges_enabled = ?, payouts_enabled = ?, updated_at = ?
		 WHERE stripe_account_id = ?`,
		chargesEnabled,
		payoutsEnabled,
		now,
		accountID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) UpdateTierByCustomerID(ctx context.Context, db *gorm.DB, stripeCustomerID string, tier string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE tenants
		 SET tier = ?, updated_at = ?
		 WHERE stripe_customer_id = ?`,
		tier,
		now,
		stripeCustomerID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
