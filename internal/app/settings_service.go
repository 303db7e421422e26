package app

import (
	"context"
	"fmt"

	"specialization_alert_bot/internal/domain/expiry"
	"specialization_alert_bot/internal/domain/notification"
)

// Settings is the read-only view of the effective alert configuration.
type Settings struct {
	Timezone          string `json:"timezone"`
	AlertDays         string `json:"alert_days"`
	Schedule          string `json:"schedule"`
	NotificationsSent int    `json:"notifications_sent"`
}

type SettingsService struct {
	timezone   string
	thresholds expiry.Thresholds
	schedule   string
	ledger     notification.Ledger
}

func NewSettingsService(timezone string, thresholds expiry.Thresholds, schedule string, ledger notification.Ledger) *SettingsService {
	return &SettingsService{timezone: timezone, thresholds: thresholds, schedule: schedule, ledger: ledger}
}

func (s *SettingsService) Current(ctx context.Context) (Settings, error) {
	n, err := s.ledger.Count(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to count notifications: %w", err)
	}
	return Settings{
		Timezone:          s.timezone,
		AlertDays:         s.thresholds.String(),
		Schedule:          s.schedule,
		NotificationsSent: n,
	}, nil
}
