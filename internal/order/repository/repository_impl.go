package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order, items []domain.OrderItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO orders (
				id, tenant_id, status, currency, items_amount, shipping_amount,
				total_amount, fee_amount, customer_name, customer_email,
				stripe_session_id, paid_at, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID,
			order.TenantID,
			order.Status,
			order.Currency,
			order.ItemsAmount,
			order.ShippingAmount,
			order.TotalAmount,
			order.FeeAmount,
			order.CustomerName,
			order.CustomerEmail,
			order.StripeSessionID,
			order.PaidAt,
			order.CreatedAt,
			order.UpdatedAt,
		).Error; err != nil {
			return err
		}

		for _, item := range items {
			if err := tx.Exec(
				`INSERT INTO order_items (
					id, order_id, product_id, product_name, unit_amount, quantity
				) VALUES (?, ?, ?, ?, ?, ?)`,
				item.ID,
				item.OrderID,
				item.ProductID,
				item.ProductName,
				item.UnitAmount,
				item.Quantity,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, orderID, tenantID snowflake.ID) (*domain.Order, error) {
	var item domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, status, currency, items_amount, shipping_amount,
			total_amount, fee_amount, customer_name, customer_email,
			stripe_session_id, paid_at, created_at, updated_at
		 FROM orders
		 WHERE id = ? AND tenant_id = ?
		 LIMIT 1`,
		orderID,
		tenantID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, product_name, unit_amount, quantity
		 FROM order_items
		 WHERE order_id = ?`,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) AttachSession(ctx context.Context, db *gorm.DB, orderID, tenantID snowflake.ID, sessionID string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET stripe_session_id = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ?`,
		sessionID,
		now,
		orderID,
		tenantID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, orderID, tenantID snowflake.ID, contact domain.CustomerContact, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, customer_name = ?, customer_email = ?, paid_at = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ? AND status = ?`,
		domain.StatusPaid,
		contact.Name,
		contact.Email,
		now,
		now,
		orderID,
		tenantID,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Transition(ctx context.Context, db *gorm.DB, orderID, tenantID snowflake.ID, from, to string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ? AND status = ?`,
		to,
		now,
		orderID,
		tenantID,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
