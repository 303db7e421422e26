// internal/infra/dispatch/email.go
package dispatch

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"

	"specialization_alert_bot/internal/domain/notification"
	"specialization_alert_bot/internal/infra/config"
)

type mailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailSender delivers plain-text mail over SMTP with mandatory STARTTLS.
type EmailSender struct {
	cfg       config.SMTPConfig
	logger    *logrus.Entry
	newClient func(cfg config.SMTPConfig) (mailClient, error)
}

func NewEmailSender(cfg config.SMTPConfig, logger *logrus.Entry) *EmailSender {
	return &EmailSender{cfg: cfg, logger: logger, newClient: newSMTPClient}
}

func newSMTPClient(cfg config.SMTPConfig) (mailClient, error) {
	return mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
}

func (s *EmailSender) Channel() notification.Channel { return notification.ChannelEmail }

// Configured reports whether SMTP credentials are present.
func (s *EmailSender) Configured() bool {
	return s.cfg.User != "" && s.cfg.Password != ""
}

func (s *EmailSender) Send(ctx context.Context, msg notification.Message) (notification.Receipt, error) {
	if !s.Configured() {
		s.logger.Warn("SMTP credentials not configured, email not sent")
		return notification.Receipt{}, fmt.Errorf("email: %w", notification.ErrNotConfigured)
	}

	m := mail.NewMsg()
	if err := m.From(s.cfg.FromEmail); err != nil {
		return notification.Receipt{}, fmt.Errorf("email: invalid from address %q: %w", s.cfg.FromEmail, err)
	}
	if err := m.To(msg.To); err != nil {
		return notification.Receipt{}, fmt.Errorf("email: invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := s.newClient(s.cfg)
	if err != nil {
		return notification.Receipt{}, fmt.Errorf("email: failed to create SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return notification.Receipt{}, fmt.Errorf("email: send to %s failed: %w", msg.To, err)
	}

	s.logger.WithField("to", msg.To).Info("Email sent")
	return notification.Receipt{}, nil
}
