package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("tenant.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	tenant, err := s.repo.Find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrNotFound
	}
	return tenant, nil
}

// SetPaymentAccount records the connected account reference exactly once.
// Onboarding callbacks retry, so an already-set reference is a logged no-op.
func (s *Service) SetPaymentAccount(ctx context.Context, tenantID snowflake.ID, accountID string) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return domain.ErrInvalidAccount
	}

	tenant, err := s.repo.Find(ctx, s.db, tenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return domain.ErrNotFound
	}

	updated, err := s.repo.SetPaymentAccount(ctx, s.db, tenantID, accountID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		s.log.Info("payment account already set, ignoring onboarding callback",
			zap.String("tenant_id", tenantID.String()),
			zap.String("account_id", accountID),
		)
	}
	return nil
}

// UpdateCapabilities applies the processor's current account state to the
// matching tenant. The processor always sends full state, so last write wins.
func (s *Service) UpdateCapabilities(ctx context.Context, accountID string, chargesEnabled, payoutsEnabled bool) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return domain.ErrInvalidAccount
	}

	updated, err := s.repo.UpdateCapabilities(ctx, s.db, accountID, chargesEnabled, payoutsEnabled, time.Now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		s.log.Warn("capability update for unknown connected account",
			zap.String("account_id", accountID),
		)
	}
	return nil
}

func (s *Service) UpdateTier(ctx context.Context, stripeCustomerID string, tier string) error {
	stripeCustomerID = strings.TrimSpace(stripeCustomerID)
	if stripeCustomerID == "" {
		return domain.ErrInvalidAccount
	}

	tier = domain.NormalizeTier(strings.ToLower(strings.TrimSpace(tier)))
	updated, err := s.repo.UpdateTierByCustomerID(ctx, s.db, stripeCustomerID, tier, time.Now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		s.log.Warn("tier update for unknown billing customer",
			zap.String("stripe_customer_id", stripeCustomerID),
		)
	}
	return nil
}
