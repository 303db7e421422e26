package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/telebot.v3"

	"specialization_alert_bot/internal/app"
	"specialization_alert_bot/internal/infra/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubChecker struct {
	mu    sync.Mutex
	calls int
	res   app.RunResult
	err   error
}

func (s *stubChecker) RunCheck(context.Context) (app.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.res, s.err
}

type recordingClient struct {
	mu   sync.Mutex
	sent map[int64][]string
}

func (c *recordingClient) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sent == nil {
		c.sent = make(map[int64][]string)
	}
	c.sent[chatID] = append(c.sent[chatID], text)
	return nil
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := NewAlertScheduler(&stubChecker{}, logger.Discard(), "not a cron spec", time.UTC)
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	s := NewAlertScheduler(&stubChecker{}, logger.Discard(), "0 8 * * *", loc)
	require.NoError(t, s.Start())
	s.Stop()
}

func TestRunOnceReportsCounts(t *testing.T) {
	checker := &stubChecker{res: app.RunResult{Sent: 3, Failed: 1}}
	client := &recordingClient{}
	s := NewAlertScheduler(checker, logger.Discard(), "0 8 * * *", time.UTC)
	s.ReportTo(client, 42)

	s.runOnce()

	assert.Equal(t, 1, checker.calls)
	require.Len(t, client.sent[42], 1)
	assert.Contains(t, client.sent[42][0], "3 enviadas, 1 errores")
}

func TestRunOnceReportsFailure(t *testing.T) {
	checker := &stubChecker{err: errors.New("database unavailable")}
	client := &recordingClient{}
	s := NewAlertScheduler(checker, logger.Discard(), "0 8 * * *", time.UTC)
	s.ReportTo(client, 42)

	s.runOnce()

	require.Len(t, client.sent[42], 1)
	assert.Contains(t, client.sent[42][0], "database unavailable")
}
