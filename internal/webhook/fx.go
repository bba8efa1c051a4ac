package webhook

import (
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/webhook/domain"
	"github.com/smallbiznis/storefront/internal/webhook/repository"
	"github.com/smallbiznis/storefront/internal/webhook/service"
	"github.com/smallbiznis/storefront/internal/webhook/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) (domain.Adapter, error) {
		return stripe.NewAdapter(cfg.StripeWebhookSecret)
	}),
	fx.Provide(service.NewService),
)
