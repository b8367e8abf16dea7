package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	plansTotal     *prometheus.CounterVec
	planDuration   *prometheus.HistogramVec
	unservedLoad   prometheus.Gauge
	fallbacksTotal *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, prometheus.Gauge, *prometheus.CounterVec) {
	plans := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powerplan_plans_total",
			Help: "Number of production plans computed",
		},
		[]string{"strategy"},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "powerplan_plan_duration_seconds",
			Help:    "Time spent computing a production plan",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"strategy"},
	)
	unserved := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "powerplan_unserved_load_mw",
			Help: "Load left uncovered by the last computed plan",
		},
	)
	fb := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powerplan_strategy_fallbacks_total",
			Help: "Number of plans served by the merit-order fallback",
		},
		[]string{"strategy"},
	)
	return plans, dur, unserved, fb
}

func init() {
	plansTotal, planDuration, unservedLoad, fallbacksTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers planning metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(plansTotal, planDuration, unservedLoad, fallbacksTotal)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	plansTotal, planDuration, unservedLoad, fallbacksTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
