package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/powerplan/core/metrics"
	"github.com/kilianp07/powerplan/core/model"
)

// PromSink exposes the setpoints of the last plan as Prometheus metrics.
type PromSink struct {
	setpoint  *prometheus.GaugeVec
	committed *prometheus.CounterVec
	served    prometheus.Gauge
	fallbacks *prometheus.CounterVec
}

// NewPromSink registers plan metrics on the default Prometheus registerer.
// The Prometheus server should be started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	setpoint, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "powerplan_unit_setpoint_mw",
		Help: "Setpoint of each plant in the last computed plan",
	}, []string{"unit", "fuel_type"}))
	if err != nil {
		return nil, err
	}
	committed, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powerplan_unit_commitments_total",
		Help: "Number of plans in which a plant received a positive setpoint",
	}, []string{"unit", "fuel_type"}))
	if err != nil {
		return nil, err
	}
	served, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powerplan_served_load_mw",
		Help: "Power allocated by the last computed plan",
	}))
	if err != nil {
		return nil, err
	}
	fallbacks, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powerplan_sink_fallbacks_total",
		Help: "Fallback events seen by the metrics sink",
	}, []string{"strategy"}))
	if err != nil {
		return nil, err
	}
	return &PromSink{setpoint: setpoint, committed: committed, served: served, fallbacks: fallbacks}, nil
}

// RecordPlan updates the per-unit gauges and counters.
func (s *PromSink) RecordPlan(rec model.PlanRecord) error {
	types := make(map[string]string, len(rec.Units))
	for _, u := range rec.Units {
		types[u.Name] = u.Type.String()
	}
	for _, e := range rec.Plan {
		fuel := types[e.Name]
		s.setpoint.WithLabelValues(e.Name, fuel).Set(float64(e.P))
		if e.P > 0 {
			s.committed.WithLabelValues(e.Name, fuel).Inc()
		}
	}
	s.served.Set(rec.Served())
	return nil
}

// RecordFallback counts strategy fallbacks.
func (s *PromSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	s.fallbacks.WithLabelValues(ev.Strategy).Inc()
	return nil
}
