package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"specialization_alert_bot/internal/app" // For AlertChecker interface
	domainTelegram "specialization_alert_bot/internal/domain/telegram"
)

// defaultRunTimeout bounds one scheduled run. Each dispatch has its own, shorter timeout.
const defaultRunTimeout = 30 * time.Minute

type AlertScheduler struct {
	cronEngine  *cron.Cron
	checker     app.AlertChecker
	logger      *logrus.Entry
	cronSpec    string
	runTimeout  time.Duration
	reporter    domainTelegram.Client // optional
	reportChats []int64
}

// NewAlertScheduler creates a scheduler whose cron spec is evaluated in loc, so
// "0 8 * * *" means 08:00 in the configured timezone rather than the host's.
func NewAlertScheduler(checker app.AlertChecker, logger *logrus.Entry, cronSpec string, loc *time.Location) *AlertScheduler {
	return &AlertScheduler{
		cronEngine: cron.New(cron.WithLocation(loc)),
		checker:    checker,
		logger:     logger,
		cronSpec:   cronSpec,
		runTimeout: defaultRunTimeout,
	}
}

// ReportTo sends a summary of every scheduled run to the given chats.
func (s *AlertScheduler) ReportTo(client domainTelegram.Client, chatIDs ...int64) {
	s.reporter = client
	s.reportChats = chatIDs
}

func (s *AlertScheduler) Start() error {
	s.logger.Info("Starting alert scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for alert check.")
		s.runOnce()
	})
	if err != nil {
		return fmt.Errorf("could not add alert check cron job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpec).Info("Alert scheduler started.")
	return nil
}

func (s *AlertScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	res, err := s.checker.RunCheck(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled alert check failed")
		s.report(fmt.Sprintf("La verificación programada de alertas falló: %v", err))
		return
	}
	s.report(fmt.Sprintf("Verificación programada completada: %d enviadas, %d errores.", res.Sent, res.Failed))
}

func (s *AlertScheduler) report(text string) {
	if s.reporter == nil {
		return
	}
	for _, chatID := range s.reportChats {
		if err := s.reporter.SendMessage(chatID, text, nil); err != nil {
			s.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to deliver run report")
		}
	}
}

func (s *AlertScheduler) Stop() {
	s.logger.Info("Stopping alert scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Alert scheduler gracefully stopped.")
}
