package service

import (
	"context"
	"strings"

	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/checkout/domain"
	"github.com/smallbiznis/storefront/internal/config"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/platformfee"
	tenantdomain "github.com/smallbiznis/storefront/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	TenantSvc  tenantdomain.Service
	Pricer     catalogdomain.Pricer
	OrderSvc   orderdomain.Service
	Processor  domain.ProcessorClient `optional:"true"`
	ObsMetrics *obsmetrics.Metrics    `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	cfg        config.Config
	tenantSvc  tenantdomain.Service
	pricer     catalogdomain.Pricer
	orderSvc   orderdomain.Service
	processor  domain.ProcessorClient
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	processor := p.Processor
	if processor == nil {
		processor = newStripeClient(p.Cfg.StripeSecretKey)
	}
	return &Service{
		log:        p.Log.Named("checkout.service"),
		cfg:        p.Cfg,
		tenantSvc:  p.TenantSvc,
		pricer:     p.Pricer,
		orderSvc:   p.OrderSvc,
		processor:  processor,
		obsMetrics: p.ObsMetrics,
	}
}

// CreateSession runs one checkout attempt: payability check, server-side
// pricing, fee derivation, durable pending order, then the processor call.
func (s *Service) CreateSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if req.TenantID == 0 {
		return nil, domain.ErrInvalidRequest
	}
	successURL := firstNonEmpty(req.SuccessURL, s.cfg.CheckoutSuccessURL)
	cancelURL := firstNonEmpty(req.CancelURL, s.cfg.CheckoutCancelURL)
	if successURL == "" || cancelURL == "" {
		return nil, domain.ErrInvalidRequest
	}

	tenant, err := s.tenantSvc.Get(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.Payable() {
		return nil, tenantdomain.ErrMerchantNotPayable
	}

	priced, err := s.pricer.PriceCart(ctx, req.TenantID, req.Items, req.ShippingOptionID)
	if err != nil {
		return nil, err
	}

	fee := platformfee.Fee(priced.Total(), tenant.Tier)

	order, err := s.orderSvc.CreatePending(ctx, req.TenantID, priced, fee)
	if err != nil {
		return nil, err
	}

	params := domain.SessionParams{
		OrderID:            order.ID,
		TenantID:           tenant.ID,
		ConnectedAccountID: *tenant.StripeAccountID,
		Currency:           priced.Currency,
		Lines:              priced.Lines,
		ShippingAmount:     priced.ShippingTotal,
		ApplicationFee:     fee,
		CustomerEmail:      strings.TrimSpace(req.CustomerEmail),
		SuccessURL:         successURL,
		CancelURL:          cancelURL,
	}
	if priced.ShippingOption != nil {
		params.ShippingName = priced.ShippingOption.Name
	}

	session, err := s.processor.CreateCheckoutSession(ctx, params)
	if err != nil {
		// The pending order is kept on purpose: it documents the attempt
		// and never transitions past pending without a confirmation event.
		s.log.Error("checkout session request failed",
			zap.String("order_id", order.ID.String()),
			zap.String("tenant_id", tenant.ID.String()),
			zap.Error(err),
		)
		return nil, domain.ErrProcessor
	}

	if err := s.orderSvc.AttachSession(ctx, order.ID, tenant.ID, session.ID); err != nil {
		s.log.Warn("failed to attach session to order",
			zap.String("order_id", order.ID.String()),
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordCheckoutSession(ctx, tenant.Tier)
	}

	return &domain.CheckoutSession{
		OrderID:     order.ID,
		SessionID:   session.ID,
		RedirectURL: session.URL,
		TotalAmount: order.TotalAmount,
		FeeAmount:   fee,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
