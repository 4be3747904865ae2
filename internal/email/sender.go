// Package email implements the notification dispatcher: templated and custom
// mail delivery over SMTP.
package email

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"leadintake_backend/platform/config"
)

// Sender delivers mail. Tests substitute a fake; production uses SMTP.
type Sender interface {
	SendTemplate(ctx context.Context, to, templateID string, variables map[string]string) error
	SendCustom(ctx context.Context, to, subject, htmlContent string) error
}

type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	templates *Registry
}

func NewSMTPSender(cfg config.EmailConfig, templates *Registry) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		templates: templates,
	}
}

func (s *SMTPSender) SendTemplate(ctx context.Context, to, templateID string, variables map[string]string) error {
	subject, body, err := s.templates.Render(templateID, variables)
	if err != nil {
		return err
	}
	return s.send(ctx, to, subject, body)
}

func (s *SMTPSender) SendCustom(ctx context.Context, to, subject, htmlContent string) error {
	return s.send(ctx, to, subject, htmlContent)
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
