// internal/app/alert_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"specialization_alert_bot/internal/domain/expiry"
	"specialization_alert_bot/internal/domain/notification"
	"specialization_alert_bot/internal/domain/record"
	"specialization_alert_bot/internal/infra/metrics"
)

// AlertChecker runs one alert check over every tracked record. Every trigger
// (scheduler, CLI, bot command, HTTP) goes through this interface.
type AlertChecker interface {
	RunCheck(ctx context.Context) (RunResult, error)
}

// RunResult aggregates one run. Sent and Failed are the counts reported to operators.
type RunResult struct {
	RunID    string        `json:"run_id"`
	Records  int           `json:"records"`
	Matched  int           `json:"matched"`
	Sent     int           `json:"sent"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration_ns"`
}

func (r RunResult) String() string {
	return fmt.Sprintf("run %s: %d records, %d due, %d sent, %d failed, %d already sent",
		r.RunID, r.Records, r.Matched, r.Sent, r.Failed, r.Skipped)
}

// AlertSettings are the engine knobs taken from configuration.
type AlertSettings struct {
	Thresholds      expiry.Thresholds
	DispatchTimeout time.Duration
	Concurrency     int
}

// outcome is the result of processing one (record, channel) pair.
type outcome int

const (
	outcomeSkipped outcome = iota // nothing to do, not an error
	outcomeSent
	outcomeFailed
)

// AlertServiceImpl implements AlertChecker.
type AlertServiceImpl struct {
	records  record.Repository
	ledger   notification.Ledger
	senders  map[notification.Channel]notification.Sender
	resolver *expiry.Resolver
	settings AlertSettings
	metrics  *metrics.Metrics // optional
	logger   *logrus.Entry
}

func NewAlertService(
	records record.Repository,
	ledger notification.Ledger,
	resolver *expiry.Resolver,
	settings AlertSettings,
	m *metrics.Metrics,
	logger *logrus.Entry,
	senders ...notification.Sender,
) *AlertServiceImpl {
	if settings.Concurrency < 1 {
		settings.Concurrency = 1
	}
	if settings.DispatchTimeout <= 0 {
		settings.DispatchTimeout = 30 * time.Second
	}
	bySender := make(map[notification.Channel]notification.Sender, len(senders))
	for _, snd := range senders {
		bySender[snd.Channel()] = snd
	}
	return &AlertServiceImpl{
		records:  records,
		ledger:   ledger,
		senders:  bySender,
		resolver: resolver,
		settings: settings,
		metrics:  m,
		logger:   logger,
	}
}

// RunCheck reads every record once and dispatches the reminders that are due.
// Per-pair failures are counted, never returned; the only error is a failed snapshot read.
func (s *AlertServiceImpl) RunCheck(ctx context.Context) (RunResult, error) {
	start := time.Now()
	result := RunResult{RunID: uuid.NewString()}
	log := s.logger.WithField("run_id", result.RunID)

	snapshot, err := s.records.ListAll(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load records for alert check")
		return result, fmt.Errorf("failed to load records: %w", err)
	}
	result.Records = len(snapshot)
	log.WithFields(logrus.Fields{
		"records":    len(snapshot),
		"thresholds": s.settings.Thresholds.String(),
		"today":      s.resolver.Today().Format(expiry.ISODate),
	}).Info("Alert check started")

	var sent, failed, skipped atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.settings.Concurrency)

	for _, rec := range snapshot {
		days, ok := s.resolver.DaysRemaining(rec.ExpiryDate)
		if !ok {
			log.WithField("record_id", rec.ID).Debug("Skipping record without a valid expiry date")
			continue
		}
		if !s.settings.Thresholds.Contains(days) {
			continue
		}
		if strings.TrimSpace(rec.Specialization) == "" {
			continue
		}
		result.Matched++

		subject, body := composeReminder(rec, days)
		for _, ch := range notification.Channels {
			to := destination(rec, ch)
			if to == "" {
				continue
			}
			key := notification.Key{
				RecordID:       rec.ID,
				Specialization: rec.Specialization,
				ExpiryDate:     rec.ExpiryDate,
				Threshold:      days,
				Channel:        ch,
			}
			msg := notification.Message{To: to, Subject: subject, Body: body}
			g.Go(func() error {
				switch s.deliver(ctx, log, key, msg) {
				case outcomeSent:
					sent.Add(1)
				case outcomeFailed:
					failed.Add(1)
				default:
					skipped.Add(1)
				}
				return nil
			})
		}
	}
	_ = g.Wait() // workers never return errors

	result.Sent = int(sent.Load())
	result.Failed = int(failed.Load())
	result.Skipped = int(skipped.Load())
	result.Duration = time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveRun(start)
	}

	log.WithFields(logrus.Fields{
		"matched":  result.Matched,
		"sent":     result.Sent,
		"failed":   result.Failed,
		"skipped":  result.Skipped,
		"duration": result.Duration.String(),
	}).Info("Alert check finished")
	return result, nil
}

// deliver runs ledger check, dispatch and ledger write for one key.
func (s *AlertServiceImpl) deliver(ctx context.Context, runLog *logrus.Entry, key notification.Key, msg notification.Message) outcome {
	log := runLog.WithFields(logrus.Fields{
		"record_id": key.RecordID,
		"channel":   key.Channel,
		"threshold": key.Threshold,
	})

	sender, ok := s.senders[key.Channel]
	if !ok {
		log.Error("No sender registered for channel")
		s.observe(key.Channel, outcomeFailed)
		return outcomeFailed
	}

	// Cheap pre-check; the claim below is what actually serializes the key.
	already, err := s.ledger.AlreadySent(ctx, key)
	if err != nil {
		log.WithError(err).Error("Ledger lookup failed")
		s.observe(key.Channel, outcomeFailed)
		return outcomeFailed
	}
	if already {
		return outcomeSkipped
	}

	claim, err := s.ledger.Claim(ctx, key)
	if err != nil {
		log.WithError(err).Error("Could not claim ledger key")
		s.observe(key.Channel, outcomeFailed)
		return outcomeFailed
	}
	defer func() {
		if err := claim.Release(); err != nil {
			log.WithError(err).Warn("Releasing ledger claim failed")
		}
	}()
	if claim.Sent() {
		log.Debug("Another run already sent this notification")
		return outcomeSkipped
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.settings.DispatchTimeout)
	receipt, err := sender.Send(sendCtx, msg)
	cancel()
	if err != nil {
		entry := log.WithError(err)
		if errors.Is(err, notification.ErrNotConfigured) {
			entry.Warn("Dispatch skipped: channel not configured")
		} else {
			entry.Error("Dispatch failed")
		}
		s.observe(key.Channel, outcomeFailed)
		return outcomeFailed
	}

	if err := claim.Commit(ctx, receipt.ProviderRef); err != nil {
		log.WithError(err).Error("Notification dispatched but ledger write failed")
		s.observe(key.Channel, outcomeFailed)
		return outcomeFailed
	}

	log.Info("Notification sent")
	s.observe(key.Channel, outcomeSent)
	return outcomeSent
}

func (s *AlertServiceImpl) observe(ch notification.Channel, o outcome) {
	if s.metrics == nil {
		return
	}
	label := "sent"
	if o == outcomeFailed {
		label = "failed"
	}
	s.metrics.ObserveDispatch(string(ch), label)
}

func destination(r *record.Record, ch notification.Channel) string {
	switch ch {
	case notification.ChannelEmail:
		return strings.TrimSpace(r.Email)
	case notification.ChannelSMS:
		return strings.TrimSpace(r.Phone)
	default:
		return ""
	}
}
