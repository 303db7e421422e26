package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/wneessen/go-mail"

	"specialization_alert_bot/internal/domain/notification"
	"specialization_alert_bot/internal/infra/config"
	"specialization_alert_bot/internal/infra/logger"
)

type fakeMailClient struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeMailClient) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func smtpConfig() config.SMTPConfig {
	return config.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "bot@example.com", Password: "secret", FromEmail: "bot@example.com"}
}

func TestEmailSenderNotConfigured(t *testing.T) {
	s := NewEmailSender(config.SMTPConfig{Host: "smtp.example.com"}, logger.Discard())
	_, err := s.Send(context.Background(), notification.Message{To: "ana@example.com", Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, notification.ErrNotConfigured)
}

func TestEmailSenderSends(t *testing.T) {
	fake := &fakeMailClient{}
	s := NewEmailSender(smtpConfig(), logger.Discard())
	s.newClient = func(config.SMTPConfig) (mailClient, error) { return fake, nil }

	_, err := s.Send(context.Background(), notification.Message{To: "ana@example.com", Subject: "Aviso", Body: "Hola"})
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)

	rcpts, err := fake.sent[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, rcpts)
}

func TestEmailSenderTransportFailure(t *testing.T) {
	s := NewEmailSender(smtpConfig(), logger.Discard())
	s.newClient = func(config.SMTPConfig) (mailClient, error) {
		return &fakeMailClient{err: errors.New("535 authentication failed")}, nil
	}

	_, err := s.Send(context.Background(), notification.Message{To: "ana@example.com", Subject: "s", Body: "b"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, notification.ErrNotConfigured)
}

func TestEmailSenderRejectsBadRecipient(t *testing.T) {
	s := NewEmailSender(smtpConfig(), logger.Discard())
	s.newClient = func(config.SMTPConfig) (mailClient, error) { return &fakeMailClient{}, nil }

	_, err := s.Send(context.Background(), notification.Message{To: "not an address", Subject: "s", Body: "b"})
	assert.Error(t, err)
}

type fakeMessageCreator struct {
	sid   string
	err   error
	delay time.Duration
	last  *twilioApi.CreateMessageParams
}

func (f *fakeMessageCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	sid := f.sid
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func twilioConfig() config.TwilioConfig {
	return config.TwilioConfig{AccountSID: "AC123", AuthToken: "token", FromPhone: "+15005550006"}
}

func TestSMSSenderNotConfigured(t *testing.T) {
	s := NewSMSSender(config.TwilioConfig{AccountSID: "AC123"}, logger.Discard())
	_, err := s.Send(context.Background(), notification.Message{To: "+573001112233", Body: "b"})
	assert.ErrorIs(t, err, notification.ErrNotConfigured)
}

func TestSMSSenderReturnsProviderRef(t *testing.T) {
	fake := &fakeMessageCreator{sid: "SM42"}
	s := NewSMSSender(twilioConfig(), logger.Discard())
	s.api = fake

	receipt, err := s.Send(context.Background(), notification.Message{To: "+573001112233", Body: "Hola"})
	require.NoError(t, err)
	assert.Equal(t, "SM42", receipt.ProviderRef)
	require.NotNil(t, fake.last.To)
	assert.Equal(t, "+573001112233", *fake.last.To)
	assert.Equal(t, "+15005550006", *fake.last.From)
}

func TestSMSSenderTimeout(t *testing.T) {
	s := NewSMSSender(twilioConfig(), logger.Discard())
	s.api = &fakeMessageCreator{sid: "SM1", delay: 200 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Send(ctx, notification.Message{To: "+573001112233", Body: "b"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSMSSenderFailure(t *testing.T) {
	s := NewSMSSender(twilioConfig(), logger.Discard())
	s.api = &fakeMessageCreator{err: errors.New("21211 invalid 'To' number")}

	_, err := s.Send(context.Background(), notification.Message{To: "123", Body: "b"})
	assert.Error(t, err)
}
