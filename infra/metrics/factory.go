package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/powerplan/core/metrics"
)

// NewSink builds the sinks enabled in cfg. Prometheus sinks register on reg,
// or on the default registerer when reg is nil. With nothing enabled a
// NopSink is returned.
func NewSink(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	var sinks []coremetrics.MetricsSink
	if cfg.PrometheusEnabled {
		prom, err := NewPromSinkWithRegistry(reg)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		eco, err := NewEcoSink(cfg.EmissionFactors, reg)
		if err != nil {
			return nil, fmt.Errorf("eco sink: %w", err)
		}
		sinks = append(sinks, prom, eco)
	}
	if cfg.Influx.Enabled {
		sinks = append(sinks, NewInfluxSinkWithFallback(cfg.Influx))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}
