package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindProducts(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, ids []snowflake.ID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, name, amount, currency, active, created_at, updated_at
		 FROM products
		 WHERE tenant_id = ? AND id IN ?`,
		tenantID,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindShippingOption(ctx context.Context, db *gorm.DB, tenantID, optionID snowflake.ID) (*domain.ShippingOption, error) {
	var item domain.ShippingOption
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, name, amount, free_over
		 FROM shipping_options
		 WHERE tenant_id = ? AND id = ?
		 LIMIT 1`,
		tenantID,
		optionID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}
