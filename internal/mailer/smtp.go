package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
)

//go:embed templates/*.html
var templateFS embed.FS

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	if len(to) == 0 {
		return fmt.Errorf("send mail: no recipients")
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", to[0], subject, mime, htmlBody))

	return smtp.SendMail(addr, auth, s.cfg.From, to, msg)
}

func (s *SMTPSender) SendTemplate(ctx context.Context, to []string, templateName string, data map[string]any) error {
	body, err := renderTemplate(templateName, data)
	if err != nil {
		return err
	}

	subject := defaultSubject(templateName, data)
	return s.Send(ctx, to, subject, body)
}

// renderTemplate renders an embedded mail template, so the sender works
// wherever the binary is deployed.
func renderTemplate(templateName string, data map[string]any) (string, error) {
	t, err := template.ParseFS(templateFS, "templates/"+templateName+".html")
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return body.String(), nil
}

func defaultSubject(templateName string, data map[string]any) string {
	if subject, ok := data["subject"].(string); ok && subject != "" {
		return subject
	}
	switch templateName {
	case "order_confirmation":
		if store, ok := data["store_name"].(string); ok && store != "" {
			return fmt.Sprintf("Your order from %s is confirmed", store)
		}
		return "Your order is confirmed"
	default:
		return "Notification"
	}
}
