package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/logger"
)

// Sender delivers transactional mail.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type smtpSender struct {
	cfg  config.MailConfig
	logg *logger.Logger
}

// NewSMTPSender builds a Sender backed by plain SMTP.
func NewSMTPSender(cfg config.MailConfig, logg *logger.Logger) (Sender, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	return &smtpSender{cfg: cfg, logg: logg}, nil
}

func (s *smtpSender) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is required")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	msg := strings.Join([]string{
		"From: " + s.cfg.FromAddress,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.FromAddress, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "mail_to", to), "mail delivered")
	}
	return nil
}

// NoopSender drops mail. Used in dev when SMTP is not configured.
type NoopSender struct {
	Logg *logger.Logger
}

func (n NoopSender) Send(ctx context.Context, to, subject, body string) error {
	if n.Logg != nil {
		n.Logg.Info(n.Logg.WithField(ctx, "mail_to", to), "mail suppressed (no smtp configured)")
	}
	return nil
}
