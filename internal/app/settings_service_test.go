package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specialization_alert_bot/internal/domain/expiry"
	"specialization_alert_bot/internal/domain/notification"
)

func TestSettingsCurrent(t *testing.T) {
	ledger := newMemLedger()
	ctx := context.Background()
	_, err := ledger.MarkSent(ctx, notification.Key{RecordID: 1, Specialization: "Buceo", ExpiryDate: "2024-06-08", Threshold: 7, Channel: notification.ChannelEmail}, "")
	require.NoError(t, err)

	svc := NewSettingsService("America/Bogota", expiry.ParseThresholds("7, 60,x,0,7"), "0 8 * * *", ledger)
	got, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Settings{
		Timezone:          "America/Bogota",
		AlertDays:         "60,7,0",
		Schedule:          "0 8 * * *",
		NotificationsSent: 1,
	}, got)
}
