package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/powerplan/core/model"
)

// EcoSink estimates the CO2 emitted by each plan from per-fuel emission
// factors and prices it with the CO2 market price of the request.
type EcoSink struct {
	mu      sync.Mutex
	factors map[string]float64
	tonnes  *prometheus.GaugeVec
	cost    prometheus.Gauge
}

// NewEcoSink creates a sink with Prometheus gauges registered on reg.
func NewEcoSink(factors map[string]float64, reg prometheus.Registerer) (*EcoSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	tonnes, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "powerplan_plan_co2_tonnes",
		Help: "Estimated CO2 emitted per hour by the last plan, by fuel type",
	}, []string{"fuel_type"}))
	if err != nil {
		return nil, err
	}
	cost, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powerplan_plan_co2_cost_euros",
		Help: "CO2 cost per hour of the last plan at the requested CO2 price",
	}))
	if err != nil {
		return nil, err
	}
	cp := make(map[string]float64, len(factors))
	for k, v := range factors {
		cp[k] = v
	}
	return &EcoSink{factors: cp, tonnes: tonnes, cost: cost}, nil
}

// Emissions returns the tonnes of CO2 per fuel type for one hour of the plan.
func (s *EcoSink) Emissions(rec model.PlanRecord) map[string]float64 {
	out := make(map[string]float64)
	for _, u := range rec.Units {
		f, ok := s.factors[u.Type.String()]
		if !ok {
			continue
		}
		out[u.Type.String()] += u.Usage * f
	}
	return out
}

// RecordPlan updates the CO2 gauges. Every gauge reflects the same plan.
func (s *EcoSink) RecordPlan(rec model.PlanRecord) error {
	emissions := s.Emissions(rec)
	values := make(map[string]float64, len(s.factors))
	var total float64
	for fuel := range s.factors {
		values[fuel] = emissions[fuel]
		total += emissions[fuel]
	}
	cost := total * rec.Fuels.CO2

	s.mu.Lock()
	defer s.mu.Unlock()
	for fuel, t := range values {
		s.tonnes.WithLabelValues(fuel).Set(t)
	}
	s.cost.Set(cost)
	return nil
}
