package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// CreatePending durably records the order before any processor call so the
// checkout session can carry a stable order reference in its metadata.
func (s *Service) CreatePending(ctx context.Context, tenantID snowflake.ID, priced *catalogdomain.PricedCart, fee int64) (*domain.Order, error) {
	if priced == nil || len(priced.Lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:             s.genID.Generate(),
		TenantID:       tenantID,
		Status:         domain.StatusPending,
		Currency:       priced.Currency,
		ItemsAmount:    priced.ItemsTotal,
		ShippingAmount: priced.ShippingTotal,
		TotalAmount:    priced.Total(),
		FeeAmount:      fee,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	items := make([]domain.OrderItem, 0, len(priced.Lines))
	for _, line := range priced.Lines {
		items = append(items, domain.OrderItem{
			ID:          s.genID.Generate(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitAmount:  line.UnitAmount,
			Quantity:    line.Quantity,
		})
	}

	if err := s.repo.Insert(ctx, s.db, order, items); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) AttachSession(ctx context.Context, orderID, tenantID snowflake.ID, sessionID string) error {
	updated, err := s.repo.AttachSession(ctx, s.db, orderID, tenantID, sessionID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		return domain.ErrNotFound
	}
	return nil
}

// MarkPaid transitions pending→paid. A miss (unknown order, cross-tenant id,
// or an order already past pending) is logged and swallowed: the guarded
// UPDATE makes replayed confirmations a no-op instead of a double transition.
func (s *Service) MarkPaid(ctx context.Context, orderID, tenantID snowflake.ID, contact domain.CustomerContact, confirmedTotal int64) error {
	order, err := s.repo.Find(ctx, s.db, orderID, tenantID)
	if err != nil {
		return err
	}
	if order == nil {
		s.log.Warn("payment confirmation for unknown order",
			zap.String("order_id", orderID.String()),
			zap.String("tenant_id", tenantID.String()),
		)
		return nil
	}

	if confirmedTotal != 0 && confirmedTotal != order.TotalAmount {
		s.log.Warn("confirmed amount differs from recorded order total",
			zap.String("order_id", orderID.String()),
			zap.Int64("recorded_total", order.TotalAmount),
			zap.Int64("confirmed_total", confirmedTotal),
		)
	}

	updated, err := s.repo.MarkPaid(ctx, s.db, orderID, tenantID, contact, time.Now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		s.log.Info("order already past pending, skipping paid transition",
			zap.String("order_id", orderID.String()),
			zap.String("status", order.Status),
		)
	}
	return nil
}

func (s *Service) MarkFulfilled(ctx context.Context, orderID, tenantID snowflake.ID) error {
	updated, err := s.repo.Transition(ctx, s.db, orderID, tenantID, domain.StatusPaid, domain.StatusFulfilled, time.Now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (s *Service) MarkCancelled(ctx context.Context, orderID, tenantID snowflake.ID) error {
	now := time.Now().UTC()
	updated, err := s.repo.Transition(ctx, s.db, orderID, tenantID, domain.StatusPending, domain.StatusCancelled, now)
	if err != nil {
		return err
	}
	if !updated {
		updated, err = s.repo.Transition(ctx, s.db, orderID, tenantID, domain.StatusPaid, domain.StatusCancelled, now)
		if err != nil {
			return err
		}
	}
	if !updated {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (s *Service) Get(ctx context.Context, orderID, tenantID snowflake.ID) (*domain.Order, []domain.OrderItem, error) {
	order, err := s.repo.Find(ctx, s.db, orderID, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, domain.ErrNotFound
	}
	items, err := s.repo.FindItems(ctx, s.db, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}
