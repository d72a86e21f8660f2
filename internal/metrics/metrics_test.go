package metrics

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsUpdate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Tick("XRP_USDT", 0.2, nil)
	m.Tick("XRP_USDT", 0.3, errors.New("x"))
	m.Decision("XRP_USDT", "BUY")
	m.Exposure("XRP_USDT", decimal.RequireFromString("50.25"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues("XRP_USDT", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues("XRP_USDT", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("XRP_USDT", "BUY")))
	assert.Equal(t, 50.25, testutil.ToFloat64(m.openExposure.WithLabelValues("XRP_USDT")))

	n, err := testutil.GatherAndCount(reg, "spot_bot_ticks_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Tick("X", 1, nil)
		m.Order("X", "buy", "market")
		m.FollowerSignal("executed")
	})
}
