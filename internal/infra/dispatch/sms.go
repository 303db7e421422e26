// internal/infra/dispatch/sms.go
package dispatch

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"specialization_alert_bot/internal/domain/notification"
	"specialization_alert_bot/internal/infra/config"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMSSender delivers text messages through the Twilio REST API.
type SMSSender struct {
	cfg    config.TwilioConfig
	logger *logrus.Entry
	api    messageCreator
}

func NewSMSSender(cfg config.TwilioConfig, logger *logrus.Entry) *SMSSender {
	s := &SMSSender{cfg: cfg, logger: logger}
	if s.Configured() {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
		s.api = client.Api
	}
	return s
}

func (s *SMSSender) Channel() notification.Channel { return notification.ChannelSMS }

// Configured reports whether account credentials and a sender number are present.
func (s *SMSSender) Configured() bool {
	return s.cfg.AccountSID != "" && s.cfg.AuthToken != "" && s.cfg.FromPhone != ""
}

// Send makes one API call. The Twilio client has no context support, so the call
// runs in its own goroutine and ctx expiry is reported as a failure.
func (s *SMSSender) Send(ctx context.Context, msg notification.Message) (notification.Receipt, error) {
	if !s.Configured() || s.api == nil {
		s.logger.Warn("Twilio credentials not configured, SMS not sent")
		return notification.Receipt{}, fmt.Errorf("sms: %w", notification.ErrNotConfigured)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(s.cfg.FromPhone)
	params.SetBody(msg.Body)

	type result struct {
		resp *twilioApi.ApiV2010Message
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := s.api.CreateMessage(params)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return notification.Receipt{}, fmt.Errorf("sms: send to %s aborted: %w", msg.To, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return notification.Receipt{}, fmt.Errorf("sms: send to %s failed: %w", msg.To, res.err)
		}
		var sid string
		if res.resp != nil && res.resp.Sid != nil {
			sid = *res.resp.Sid
		}
		s.logger.WithFields(logrus.Fields{"to": msg.To, "sid": sid}).Info("SMS sent")
		return notification.Receipt{ProviderRef: sid}, nil
	}
}
