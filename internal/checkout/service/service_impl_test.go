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
	catalogrepo "github.com/smallbiznis/storefront/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/storefront/internal/catalog/service"
	checkoutdomain "github.com/smallbiznis/storefront/internal/checkout/domain"
	checkoutservice "github.com/smallbiznis/storefront/internal/checkout/service"
	"github.com/smallbiznis/storefront/internal/config"
	orderrepo "github.com/smallbiznis/storefront/internal/order/repository"
	orderservice "github.com/smallbiznis/storefront/internal/order/service"
	tenantdomain "github.com/smallbiznis/storefront/internal/tenant/domain"
	tenantrepo "github.com/smallbiznis/storefront/internal/tenant/repository"
	tenantservice "github.com/smallbiznis/storefront/internal/tenant/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeProcessor struct {
	calls  []checkoutdomain.SessionParams
	err    error
	nextID int
}

func (f *fakeProcessor) CreateCheckoutSession(ctx context.Context, params checkoutdomain.SessionParams) (*checkoutdomain.ProcessorSession, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	id := fmt.Sprintf("cs_test_%d", f.nextID)
	return &checkoutdomain.ProcessorSession{
		ID:  id,
		URL: "https://checkout.stripe.com/pay/" + id,
	}, nil
}

type checkoutFixture struct {
	db        *gorm.DB
	node      *snowflake.Node
	svc       checkoutdomain.Service
	processor *fakeProcessor
}

func setupCheckout(t *testing.T, nodeID int64) *checkoutFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE tenants (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			tier TEXT NOT NULL DEFAULT 'free',
			stripe_account_id TEXT,
			stripe_customer_id TEXT,
			charges_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			payouts_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE products (
			id BIGINT PRIMARY KEY,
			tenant_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE shipping_options (
			id BIGINT PRIMARY KEY,
			tenant_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			amount BIGINT NOT NULL,
			free_over BIGINT
		)`,
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

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	tenantSvc := tenantservice.NewService(tenantservice.Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: tenantrepo.Provide(),
	})
	pricer := catalogservice.NewPricer(catalogservice.Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: catalogrepo.Provide(),
	})
	orderSvc := orderservice.NewService(orderservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  orderrepo.Provide(),
	})
	processor := &fakeProcessor{}
	svc := checkoutservice.NewService(checkoutservice.Params{
		Log: zap.NewNop(),
		Cfg: config.Config{
			CheckoutSuccessURL: "https://shop.example.com/success",
			CheckoutCancelURL:  "https://shop.example.com/cancel",
		},
		TenantSvc: tenantSvc,
		Pricer:    pricer,
		OrderSvc:  orderSvc,
		Processor: processor,
	})

	return &checkoutFixture{db: db, node: node, svc: svc, processor: processor}
}

func (f *checkoutFixture) seedTenant(t *testing.T, tier string, accountID string, chargesEnabled bool) snowflake.ID {
	t.Helper()

	id := f.node.Generate()
	now := time.Now().UTC()
	var account *string
	if accountID != "" {
		account = &accountID
	}
	err := f.db.Exec(
		"INSERT INTO tenants (id, name, email, tier, stripe_account_id, charges_enabled, payouts_enabled, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, "Shop", "shop@example.com", tier, account, chargesEnabled, chargesEnabled, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return id
}

func (f *checkoutFixture) seedProduct(t *testing.T, tenantID snowflake.ID, name string, amount int64) snowflake.ID {
	t.Helper()

	id := f.node.Generate()
	now := time.Now().UTC()
	err := f.db.Exec(
		"INSERT INTO products (id, tenant_id, name, amount, currency, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		id, tenantID, name, amount, "USD", true, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return id
}

func cartOf(productID snowflake.ID, quantity int64) []catalogdomain.CartItem {
	return []catalogdomain.CartItem{{ProductID: productID, Quantity: quantity}}
}

func (f *checkoutFixture) orderCount(t *testing.T) int64 {
	t.Helper()

	var count int64
	if err := f.db.Raw("SELECT COUNT(1) FROM orders").Scan(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	return count
}

func TestCreateSessionChargesDestinationFee(t *testing.T) {
	ctx := context.Background()
	f := setupCheckout(t, 40)

	tenantID := f.seedTenant(t, "growth", "acct_123", true)
	productID := f.seedProduct(t, tenantID, "Mug", 2500)

	resp, err := f.svc.CreateSession(ctx, checkoutdomain.CheckoutRequest{
		TenantID:      tenantID,
		Items:         cartOf(productID, 1),
		CustomerEmail: "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if resp.TotalAmount != 2500 {
		t.Fatalf("expected total 2500, got %d", resp.TotalAmount)
	}
	// 3% of 2500 is 75 minor units.
	if resp.FeeAmount != 75 {
		t.Fatalf("expected fee 75, got %d", resp.FeeAmount)
	}
	if resp.RedirectURL == "" || resp.SessionID == "" {
		t.Fatalf("expected session details, got %+v", resp)
	}

	if len(f.processor.calls) != 1 {
		t.Fatalf("expected 1 processor call, got %d", len(f.processor.calls))
	}
	call := f.processor.calls[0]
	if call.ConnectedAccountID != "acct_123" {
		t.Fatalf("expected destination acct_123, got %s", call.ConnectedAccountID)
	}
	if call.ApplicationFee != 75 {
		t.Fatalf("expected application fee 75, got %d", call.ApplicationFee)
	}
	if call.OrderID != resp.OrderID {
		t.Fatalf("processor call carries order %s, response carries %s", call.OrderID, resp.OrderID)
	}

	var sessionID string
	if err := f.db.Raw("SELECT stripe_session_id FROM orders WHERE id = ?", resp.OrderID).Scan(&sessionID).Error; err != nil {
		t.Fatalf("scan session id: %v", err)
	}
	if sessionID != resp.SessionID {
		t.Fatalf("expected attached session %s, got %s", resp.SessionID, sessionID)
	}
}

func TestCreateSessionRejectsUnpayableMerchant(t *testing.T) {
	ctx := context.Background()
	f := setupCheckout(t, 41)

	cases := []struct {
		name           string
		accountID      string
		chargesEnabled bool
	}{
		{"no connected account", "", false},
		{"charges disabled", "acct_disabled", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tenantID := f.seedTenant(t, "pro", tc.accountID, tc.chargesEnabled)
			productID := f.seedProduct(t, tenantID, "Mug", 2500)

			_, err := f.svc.CreateSession(ctx, checkoutdomain.CheckoutRequest{
				TenantID: tenantID,
				Items:    cartOf(productID, 1),
			})
			if !errors.Is(err, tenantdomain.ErrMerchantNotPayable) {
				t.Fatalf("expected ErrMerchantNotPayable, got %v", err)
			}
		})
	}

	if count := f.orderCount(t); count != 0 {
		t.Fatalf("expected no orders, got %d", count)
	}
	if len(f.processor.calls) != 0 {
		t.Fatalf("expected no processor calls, got %d", len(f.processor.calls))
	}
}

func TestCreateSessionInvalidCartLeavesNoOrder(t *testing.T) {
	ctx := context.Background()
	f := setupCheckout(t, 42)

	tenantID := f.seedTenant(t, "growth", "acct_123", true)

	_, err := f.svc.CreateSession(ctx, checkoutdomain.CheckoutRequest{
		TenantID: tenantID,
		Items:    cartOf(f.node.Generate(), 1),
	})
	if err == nil {
		t.Fatalf("expected error for unknown product")
	}

	if count := f.orderCount(t); count != 0 {
		t.Fatalf("expected no orders, got %d", count)
	}
}

func TestCreateSessionKeepsPendingOrderOnProcessorFailure(t *testing.T) {
	ctx := context.Background()
	f := setupCheckout(t, 43)
	f.processor.err = errors.New("stripe is down")

	tenantID := f.seedTenant(t, "growth", "acct_123", true)
	productID := f.seedProduct(t, tenantID, "Mug", 2500)

	_, err := f.svc.CreateSession(ctx, checkoutdomain.CheckoutRequest{
		TenantID: tenantID,
		Items:    cartOf(productID, 1),
	})
	if !errors.Is(err, checkoutdomain.ErrProcessor) {
		t.Fatalf("expected ErrProcessor, got %v", err)
	}

	// The attempt stays recorded; pending orders never settle without a
	// confirmation event.
	var status string
	if err := f.db.Raw("SELECT status FROM orders LIMIT 1").Scan(&status).Error; err != nil {
		t.Fatalf("scan status: %v", err)
	}
	if status != "pending" {
		t.Fatalf("expected pending order, got %s", status)
	}
}
