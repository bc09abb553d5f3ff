package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/schoolhub/school-directory-service/internal/config"
	"github.com/schoolhub/school-directory-service/internal/observability"
)

// CodeNotification is the payload handed to the mailer when a sign-in code
// is issued. The raw code appears here and nowhere else outside the store.
type CodeNotification struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

type Mailer interface {
	SendOneTimeCode(ctx context.Context, n CodeNotification) error
}

// DevMailer logs the code instead of delivering it. Local and test
// environments read the code from the service log.
type DevMailer struct {
	logger *slog.Logger
}

func NewDevMailer(logger *slog.Logger) *DevMailer {
	return &DevMailer{logger: logger}
}

func (m *DevMailer) SendOneTimeCode(ctx context.Context, n CodeNotification) error {
	m.logger.InfoContext(ctx, "one-time code issued",
		"email", n.Email,
		"code", n.Code,
		"expires_at", n.ExpiresAt,
	)
	observability.RecordMailerDelivery(ctx, "dev", "sent")
	return nil
}

// SMTPMailer delivers sign-in codes over plain SMTP with optional auth.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *slog.Logger
}

func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
		logger:   logger,
	}
}

func (m *SMTPMailer) SendOneTimeCode(ctx context.Context, n CodeNotification) error {
	minutes := int(time.Until(n.ExpiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	body := strings.Join([]string{
		"From: " + m.from,
		"To: " + n.Email,
		"Subject: Your sign-in code",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		fmt.Sprintf("Your sign-in code is %s. It expires in %d minutes.", n.Code, minutes),
		"If you did not request this code you can ignore this email.",
		"",
	}, "\r\n")

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, auth, m.from, []string{n.Email}, []byte(body)); err != nil {
		observability.RecordMailerDelivery(ctx, "smtp", "error")
		return fmt.Errorf("send one-time code mail: %w", err)
	}
	m.logger.InfoContext(ctx, "one-time code mail sent", "email", n.Email)
	observability.RecordMailerDelivery(ctx, "smtp", "sent")
	return nil
}

// NewMailer picks the delivery backend from configuration.
func NewMailer(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg.MailerMode == "smtp" {
		return NewSMTPMailer(cfg, logger)
	}
	return NewDevMailer(logger)
}
