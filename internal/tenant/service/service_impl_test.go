package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	tenantdomain "github.com/smallbiznis/storefront/internal/tenant/domain"
	tenantrepo "github.com/smallbiznis/storefront/internal/tenant/repository"
	tenantservice "github.com/smallbiznis/storefront/internal/tenant/service"
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

	err = db.Exec(`CREATE TABLE tenants (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		tier TEXT NOT NULL DEFAULT 'free',
		stripe_account_id TEXT UNIQUE,
		stripe_customer_id TEXT,
		charges_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		payouts_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error
	if err != nil {
		t.Fatalf("schema exec failed: %v", err)
	}

	return db
}

func newTenantService(db *gorm.DB) tenantdomain.Service {
	return tenantservice.NewService(tenantservice.Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: tenantrepo.Provide(),
	})
}

func seedTenant(t *testing.T, db *gorm.DB, id snowflake.ID) {
	t.Helper()

	now := time.Now().UTC()
	err := db.Exec(
		"INSERT INTO tenants (id, name, email, tier, created_at, updated_at) VALUES (?, ?, ?, 'free', ?, ?)",
		id, "Shop", "shop@example.com", now, now,
	).Error
	if err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
}

func TestSetPaymentAccountIsSetOnce(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTenantService(db)

	node, err := snowflake.NewNode(60)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	tenantID := node.Generate()
	seedTenant(t, db, tenantID)

	if err := svc.SetPaymentAccount(ctx, tenantID, "acct_first"); err != nil {
		t.Fatalf("set payment account: %v", err)
	}

	// Onboarding callbacks retry; a second attempt must not overwrite.
	if err := svc.SetPaymentAccount(ctx, tenantID, "acct_second"); err != nil {
		t.Fatalf("retried set payment account: %v", err)
	}

	tenant, err := svc.Get(ctx, tenantID)
	if err != nil {
		t.Fatalf("get tenant: %v", err)
	}
	if tenant.StripeAccountID == nil || *tenant.StripeAccountID != "acct_first" {
		t.Fatalf("expected acct_first, got %+v", tenant.StripeAccountID)
	}
}

func TestSetPaymentAccountValidation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTenantService(db)

	node, err := snowflake.NewNode(61)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	tenantID := node.Generate()
	seedTenant(t, db, tenantID)

	if err := svc.SetPaymentAccount(ctx, tenantID, "   "); !errors.Is(err, tenantdomain.ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
	if err := svc.SetPaymentAccount(ctx, node.Generate(), "acct_x"); !errors.Is(err, tenantdomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateCapabilitiesLastWriteWins(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTenantService(db)

	node, err := snowflake.NewNode(62)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	tenantID := node.Generate()
	seedTenant(t, db, tenantID)
	if err := svc.SetPaymentAccount(ctx, tenantID, "acct_123"); err != nil {
		t.Fatalf("set payment account: %v", err)
	}

	if err := svc.UpdateCapabilities(ctx, "acct_123", true, true); err != nil {
		t.Fatalf("update capabilities: %v", err)
	}
	if err := svc.UpdateCapabilities(ctx, "acct_123", false, true); err != nil {
		t.Fatalf("update capabilities: %v", err)
	}

	tenant, err := svc.Get(ctx, tenantID)
	if err != nil {
		t.Fatalf("get tenant: %v", err)
	}
	if tenant.ChargesEnabled || !tenant.PayoutsEnabled {
		t.Fatalf("expected charges=false payouts=true, got %+v", tenant)
	}
	if tenant.Payable() {
		t.Fatalf("expected tenant not payable with charges disabled")
	}

	// Unknown accounts are a logged no-op; Stripe may send events for
	// accounts this platform never onboarded.
	if err := svc.UpdateCapabilities(ctx, "acct_unknown", true, true); err != nil {
		t.Fatalf("update unknown account: %v", err)
	}
}
