package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveDispatch(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveDispatch("email", "sent")
	m.ObserveDispatch("email", "sent")
	m.ObserveDispatch("sms", "failed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("email", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("sms", "failed")))
}

func TestObserveRun(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRun(time.Now().Add(-time.Second))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal))
	assert.Greater(t, testutil.ToFloat64(m.LastRunStamp), 0.0)
}
