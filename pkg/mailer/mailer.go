// Package mailer delivers HTML e-mail over SMTP.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/pkg/config"
)

// Message is a single rendered e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends messages through an SMTP relay. A client is dialled per
// message so a broken connection never outlives one delivery.
type SMTPSender struct {
	cfg config.MailConfig
}

// NewSMTPSender builds a sender for the configured relay.
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send dials the relay and delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. Used when
// no relay is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message headers.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail not delivered: no smtp relay configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// New picks the SMTP sender when a host is configured and the log sender otherwise.
func New(cfg config.MailConfig, logger *zap.Logger) Sender {
	if cfg.Host == "" {
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg)
}
