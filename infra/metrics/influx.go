package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/powerplan/core/metrics"
	"github.com/kilianp07/powerplan/core/model"
	"github.com/kilianp07/powerplan/infra/logger"
)

// InfluxSink writes plans to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// planPoints converts a record into one summary point and one point per plant.
func planPoints(rec model.PlanRecord) []*write.Point {
	setpoints := make(map[string]int, len(rec.Plan))
	for _, e := range rec.Plan {
		setpoints[e.Name] = e.P
	}
	points := make([]*write.Point, 0, len(rec.Units)+1)
	points = append(points, write.NewPointWithMeasurement("plan").
		AddTag("plan_id", rec.ID).
		AddTag("strategy", rec.Strategy).
		AddField("load_mw", round3(rec.Load)).
		AddField("served_mw", round3(rec.Served())).
		AddField("unserved_mw", round3(rec.Unserved())).
		AddField("plants", len(rec.Units)).
		SetTime(rec.Timestamp))
	for i, u := range rec.Units {
		points = append(points, write.NewPointWithMeasurement("plan_unit").
			AddTag("plan_id", rec.ID).
			AddTag("unit", u.Name).
			AddTag("fuel_type", u.Type.String()).
			AddTag("strategy", rec.Strategy).
			AddField("merit_rank", i).
			AddField("usage_mw", round3(u.Usage)).
			AddField("setpoint_mw", setpoints[u.Name]).
			AddField("max_mw", round3(u.MaxGeneratable)).
			AddField("cost", round3(u.Cost)).
			SetTime(rec.Timestamp))
	}
	return points
}

// RecordPlan writes the plan as line protocol points.
func (s *InfluxSink) RecordPlan(rec model.PlanRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, planPoints(rec)...)
}

// RecordFallback persists a strategy fallback.
func (s *InfluxSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("strategy_fallback").
		AddTag("strategy", ev.Strategy).
		AddField("reason", ev.Reason).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
