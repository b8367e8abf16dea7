package metrics

import (
	"time"

	"github.com/kilianp07/powerplan/core/model"
)

// MetricsSink records computed plans for observability purposes.
type MetricsSink interface {
	RecordPlan(rec model.PlanRecord) error
}

// FallbackEvent records a strategy that could not serve a plan itself.
type FallbackEvent struct {
	Strategy string
	Reason   string
	Time     time.Time
}

// FallbackRecorder is implemented by sinks able to record fallbacks.
type FallbackRecorder interface {
	RecordFallback(ev FallbackEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(model.PlanRecord) error  { return nil }
func (NopSink) RecordFallback(FallbackEvent) error { return nil }
