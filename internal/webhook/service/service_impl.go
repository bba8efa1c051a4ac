package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/alert"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/mailer"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	tenantdomain "github.com/smallbiznis/storefront/internal/tenant/domain"
	"github.com/smallbiznis/storefront/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Adapter    domain.Adapter
	Repo       domain.Repository
	OrderSvc   orderdomain.Service
	TenantSvc  tenantdomain.Service
	Mailer     mailer.Sender
	Alerts     alert.Notifier
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	adapter    domain.Adapter
	repo       domain.Repository
	orderSvc   orderdomain.Service
	tenantSvc  tenantdomain.Service
	mailer     mailer.Sender
	alerts     alert.Notifier
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("webhook.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		adapter:    p.Adapter,
		repo:       p.Repo,
		orderSvc:   p.OrderSvc,
		tenantSvc:  p.TenantSvc,
		mailer:     p.Mailer,
		alerts:     p.Alerts,
		obsMetrics: p.ObsMetrics,
	}
}

// IngestWebhook verifies, dedupes, and applies one processor notification.
// A non-nil return asks the processor to redeliver the event later.
func (s *Service) IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if err := s.adapter.Verify(ctx, payload, headers); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return domain.ErrInvalidPayload
	}

	event, err := s.adapter.Parse(ctx, payload)
	if err != nil {
		return err
	}
	env := event.Envelope()
	provider := s.adapter.Provider()

	now := s.clock.Now().UTC()
	received := domain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        provider,
		ProviderEventID: env.ID,
		EventType:       env.EventType,
		Status:          domain.StatusReceived,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      now,
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		return err
	}
	stored := &received
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, provider, env.ID)
		if err != nil {
			return err
		}
		if stored == nil {
			return domain.ErrInvalidPayload
		}
		switch stored.Status {
		case domain.StatusProcessed, domain.StatusSkipped:
			return domain.ErrEventAlreadyProcessed
		}
		// Still 'received' or previously 'failed'; this delivery retries it.
		s.log.Info("retrying unfinished webhook event",
			zap.String("provider_event_id", env.ID),
			zap.String("status", stored.Status),
		)
	}

	status, dispatchErr := s.dispatch(ctx, event)
	if dispatchErr != nil {
		if markErr := s.repo.SetStatus(ctx, s.db, stored.ID, domain.StatusFailed, s.clock.Now().UTC()); markErr != nil {
			s.log.Error("failed to mark webhook event failed", zap.Error(markErr))
		}
		s.alerts.Alert("webhook_dispatch",
			fmt.Sprintf("event %s (%s) dispatch failed: %v", env.ID, env.EventType, dispatchErr))
		if s.obsMetrics != nil {
			s.obsMetrics.RecordOpsAlert(ctx, "webhook_dispatch")
		}
		return dispatchErr
	}

	if err := s.repo.SetStatus(ctx, s.db, stored.ID, status, s.clock.Now().UTC()); err != nil {
		return err
	}
	if inserted && s.obsMetrics != nil {
		s.obsMetrics.RecordPaymentEvent(ctx, provider, env.EventType)
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, event domain.Event) (string, error) {
	switch e := event.(type) {
	case domain.CheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, e)
	case domain.SubscriptionUpdated:
		if err := s.tenantSvc.UpdateTier(ctx, e.StripeCustomerID, e.Tier); err != nil {
			return "", err
		}
		return domain.StatusProcessed, nil
	case domain.AccountUpdated:
		if err := s.tenantSvc.UpdateCapabilities(ctx, e.AccountID, e.ChargesEnabled, e.PayoutsEnabled); err != nil {
			return "", err
		}
		return domain.StatusProcessed, nil
	case domain.IgnoredEvent:
		s.log.Debug("ignoring webhook event", zap.String("event_type", e.Env.EventType))
		return domain.StatusSkipped, nil
	default:
		return domain.StatusSkipped, nil
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, e domain.CheckoutCompleted) (string, error) {
	if !e.HasOrderRef {
		s.log.Warn("checkout session completed without order reference",
			zap.String("provider_event_id", e.Env.ID),
		)
		return domain.StatusSkipped, nil
	}

	contact := orderdomain.CustomerContact{
		Name:  e.CustomerName,
		Email: e.CustomerEmail,
	}
	if err := s.orderSvc.MarkPaid(ctx, e.OrderID, e.TenantID, contact, e.AmountTotal); err != nil {
		return "", err
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordOrderPaid(ctx)
	}
	s.sendConfirmation(ctx, e)
	return domain.StatusProcessed, nil
}

// sendConfirmation is best effort. The order is already paid; email
// failures are logged and never surfaced to the processor.
func (s *Service) sendConfirmation(ctx context.Context, e domain.CheckoutCompleted) {
	if e.CustomerEmail == "" {
		return
	}
	log := s.log
	detached := context.WithoutCancel(ctx)
	go func() {
		data := map[string]any{
			"OrderID":      e.OrderID.String(),
			"CustomerName": e.CustomerName,
			"AmountTotal":  strconv.FormatInt(e.AmountTotal, 10),
		}
		if err := s.mailer.SendTemplate(detached, []string{e.CustomerEmail}, "order_confirmation", data); err != nil {
			log.Warn("order confirmation email failed",
				zap.String("order_id", e.OrderID.String()),
				zap.Error(err),
			)
		}
	}()
}
