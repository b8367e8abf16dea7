// Package metrics defines the sink interface planning results are recorded
// through. Implementations live in infra/metrics: PromSink exposes setpoints
// as Prometheus gauges, InfluxSink writes them as points, and MultiSink
// combines several sinks.
package metrics
