package metrics

import (
	"errors"

	coremetrics "github.com/kilianp07/powerplan/core/metrics"
	"github.com/kilianp07/powerplan/core/model"
)

// MultiSink fans plan records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the record to every sink and joins their errors.
func (m *MultiSink) RecordPlan(rec model.PlanRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordPlan(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordFallback forwards fallback events to sinks supporting them.
func (m *MultiSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.FallbackRecorder); ok {
			if err := rec.RecordFallback(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close releases the sinks holding connections.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
