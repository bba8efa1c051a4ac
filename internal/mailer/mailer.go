package mailer

import "context"

// Sender delivers transactional mail. Delivery failures are logged by the
// caller and never fail the surrounding request.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
	SendTemplate(ctx context.Context, to []string, templateName string, data map[string]any) error
}

type NoOpSender struct{}

func (NoOpSender) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func (NoOpSender) SendTemplate(ctx context.Context, to []string, templateName string, data map[string]any) error {
	return nil
}
