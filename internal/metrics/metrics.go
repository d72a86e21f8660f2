// Package metrics holds the Prometheus collectors updated by traders and the
// follower:
//
//	spot_bot_ticks_total{symbol,result}         loop iterations (ok|error)
//	spot_bot_tick_seconds{symbol}               tick duration
//	spot_bot_decisions_total{symbol,action}     policy outcomes
//	spot_bot_orders_total{symbol,side,type}     orders accepted by the exchange
//	spot_bot_rejections_total{symbol,reason}    sizing rejections
//	spot_bot_open_exposure{symbol}              ledger exposure in quote units
//	spot_bot_follower_signals_total{result}     follower outcomes
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "spot_bot"

type Metrics struct {
	ticks           *prometheus.CounterVec
	tickSeconds     *prometheus.HistogramVec
	decisions       *prometheus.CounterVec
	orders          *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	openExposure    *prometheus.GaugeVec
	followerSignals *prometheus.CounterVec
}

// New builds the collectors and registers them on reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Trader loop iterations by result.",
		}, []string{"symbol", "result"}),
		tickSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_seconds",
			Help:      "Duration of one trader tick.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"symbol"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Policy decisions by action.",
		}, []string{"symbol", "action"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Orders accepted by the exchange.",
		}, []string{"symbol", "side", "type"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Trades skipped by the position sizer.",
		}, []string{"symbol", "reason"}),
		openExposure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_exposure",
			Help:      "Quote value committed to open grid orders.",
		}, []string{"symbol"}),
		followerSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "follower_signals_total",
			Help:      "Follower feed records by outcome.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.ticks, m.tickSeconds, m.decisions, m.orders, m.rejections, m.openExposure, m.followerSignals)
	}
	return m
}

func (m *Metrics) Tick(symbol string, seconds float64, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ticks.WithLabelValues(symbol, result).Inc()
	m.tickSeconds.WithLabelValues(symbol).Observe(seconds)
}

func (m *Metrics) Decision(symbol, action string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(symbol, action).Inc()
}

func (m *Metrics) Order(symbol, side, orderType string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(symbol, side, orderType).Inc()
}

func (m *Metrics) Rejection(symbol, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(symbol, reason).Inc()
}

func (m *Metrics) Exposure(symbol string, v decimal.Decimal) {
	if m == nil {
		return
	}
	m.openExposure.WithLabelValues(symbol).Set(v.InexactFloat64())
}

func (m *Metrics) FollowerSignal(result string) {
	if m == nil {
		return
	}
	m.followerSignals.WithLabelValues(result).Inc()
}
