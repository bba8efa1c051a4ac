package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	orderrepo "github.com/smallbiznis/storefront/internal/order/repository"
	orderservice "github.com/smallbiznis/storefront/internal/order/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			tenant_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			currency TEXT NOT NULL,
			items_amount BIGINT NOT NULL,
			shipping_amount BIGINT NOT NULL,
			total_amount BIGINT NOT NULL,
			fee_amount BIGINT NOT NULL,
			customer_name TEXT,
			customer_email TEXT,
			stripe_session_id TEXT,
			paid_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE order_items (
			id BIGINT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			product_name TEXT NOT NULL,
			unit_amount BIGINT NOT NULL,
			quantity BIGINT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema exec failed: %v", err)
		}
	}

	return db
}

func newOrderService(t *testing.T, db *gorm.DB, nodeID int64) orderdomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return orderservice.NewService(orderservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  orderrepo.Provide(),
	})
}

func pricedCart() *catalogdomain.PricedCart {
	return &catalogdomain.PricedCart{
		Lines: []catalogdomain.PricedLine{
			{ProductID: 1001, ProductName: "Mug", UnitAmount: 1500, Quantity: 1},
			{ProductID: 1002, ProductName: "Shirt", UnitAmount: 2000, Quantity: 1},
		},
		ItemsTotal:    3500,
		ShippingTotal: 500,
		Currency:      "USD",
	}
}

func TestCreatePendingSnapshotsCart(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newOrderService(t, db, 30)
	tenantID := snowflake.ID(7001)

	order, err := svc.CreatePending(ctx, tenantID, pricedCart(), 120)
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	if order.Status != orderdomain.StatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.TotalAmount != 4000 || order.FeeAmount != 120 {
		t.Fatalf("unexpected amounts: %+v", order)
	}

	stored, items, err := svc.Get(ctx, order.ID, tenantID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.ItemsAmount != 3500 || stored.ShippingAmount != 500 {
		t.Fatalf("unexpected stored amounts: %+v", stored)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].UnitAmount != 1500 {
		t.Fatalf("expected snapshotted unit amount 1500, got %d", items[0].UnitAmount)
	}
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newOrderService(t, db, 31)
	tenantID := snowflake.ID(7002)

	order, err := svc.CreatePending(ctx, tenantID, pricedCart(), 120)
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	contact := orderdomain.CustomerContact{Name: "Ada", Email: "ada@example.com"}
	if err := svc.MarkPaid(ctx, order.ID, tenantID, contact, 4000); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	stored, _, err := svc.Get(ctx, order.ID, tenantID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.Status != orderdomain.StatusPaid {
		t.Fatalf("expected paid, got %s", stored.Status)
	}
	if stored.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}
	if stored.CustomerEmail != "ada@example.com" {
		t.Fatalf("expected customer email, got %q", stored.CustomerEmail)
	}
	firstPaidAt := *stored.PaidAt

	// A replayed confirmation is swallowed and changes nothing.
	if err := svc.MarkPaid(ctx, order.ID, tenantID, orderdomain.CustomerContact{Name: "Mallory"}, 4000); err != nil {
		t.Fatalf("replayed mark paid: %v", err)
	}
	stored, _, err = svc.Get(ctx, order.ID, tenantID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.CustomerName != "Ada" {
		t.Fatalf("replay overwrote contact: %q", stored.CustomerName)
	}
	if !stored.PaidAt.Equal(firstPaidAt) {
		t.Fatalf("replay changed paid_at")
	}
}

func TestMarkPaidIgnoresForeignTenant(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newOrderService(t, db, 32)
	tenantID := snowflake.ID(7003)
	otherTenantID := snowflake.ID(7004)

	order, err := svc.CreatePending(ctx, tenantID, pricedCart(), 120)
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	if err := svc.MarkPaid(ctx, order.ID, otherTenantID, orderdomain.CustomerContact{}, 4000); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	stored, _, err := svc.Get(ctx, order.ID, tenantID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.Status != orderdomain.StatusPending {
		t.Fatalf("foreign tenant transitioned order to %s", stored.Status)
	}
}

func TestAttachSession(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newOrderService(t, db, 33)
	tenantID := snowflake.ID(7005)

	order, err := svc.CreatePending(ctx, tenantID, pricedCart(), 120)
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	if err := svc.AttachSession(ctx, order.ID, tenantID, "cs_test_123"); err != nil {
		t.Fatalf("attach session: %v", err)
	}
	stored, _, err := svc.Get(ctx, order.ID, tenantID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.StripeSessionID == nil || *stored.StripeSessionID != "cs_test_123" {
		t.Fatalf("expected session id, got %+v", stored.StripeSessionID)
	}

	if err := svc.AttachSession(ctx, snowflake.ID(999), tenantID, "cs_test_456"); !errors.Is(err, orderdomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newOrderService(t, db, 34)
	tenantID := snowflake.ID(7006)

	order, err := svc.CreatePending(ctx, tenantID, pricedCart(), 120)
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	// Fulfillment requires a paid order.
	if err := svc.MarkFulfilled(ctx, order.ID, tenantID); !errors.Is(err, orderdomain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if err := svc.MarkPaid(ctx, order.ID, tenantID, orderdomain.CustomerContact{}, 0); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if err := svc.MarkFulfilled(ctx, order.ID, tenantID); err != nil {
		t.Fatalf("mark fulfilled: %v", err)
	}

	// Fulfilled orders are out of reach for cancellation.
	if err := svc.MarkCancelled(ctx, order.ID, tenantID); !errors.Is(err, orderdomain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
