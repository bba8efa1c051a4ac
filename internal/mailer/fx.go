package mailer

import (
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("mailer",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Sender {
	if cfg.Email.SMTPHost == "" {
		return NoOpSender{}
	}
	return NewSMTP(Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUsername,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.SMTPFrom,
	})
}
