package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/powerplan/core/metrics"
	"github.com/kilianp07/powerplan/core/model"
)

func sampleRecord() model.PlanRecord {
	return model.PlanRecord{
		ID:        "p1",
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Strategy:  "merit_order",
		Load:      150,
		Fuels:     model.Fuels{Gas: 13.4, Kerosine: 50.8, CO2: 20, WindPercent: 60},
		Units: []model.UnitDispatch{
			{Name: "windpark1", Type: model.FuelWind, Usage: 90, MaxGeneratable: 90},
			{Name: "gasfiredbig1", Type: model.FuelGas, Cost: 13.4, Usage: 60, MinGeneratable: 53, MaxGeneratable: 243.8},
			{Name: "tj1", Type: model.FuelTurbojet, Cost: 50.8, MaxGeneratable: 4.8},
		},
		Plan: model.Plan{{Name: "windpark1", P: 90}, {Name: "gasfiredbig1", P: 60}, {Name: "tj1", P: 0}},
	}
}

func TestPromSink_RecordPlan(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordPlan(sampleRecord()))
	assert.Equal(t, 90.0, testutil.ToFloat64(sink.setpoint.WithLabelValues("windpark1", "windturbine")))
	assert.Equal(t, 60.0, testutil.ToFloat64(sink.setpoint.WithLabelValues("gasfiredbig1", "gasfired")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.setpoint.WithLabelValues("tj1", "turbojet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.committed.WithLabelValues("windpark1", "windturbine")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.committed.WithLabelValues("tj1", "turbojet")))
	assert.Equal(t, 150.0, testutil.ToFloat64(sink.served))

	require.NoError(t, sink.RecordFallback(coremetrics.FallbackEvent{Strategy: "lp"}))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.fallbacks.WithLabelValues("lp")))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	assert.Same(t, a.setpoint, b.setpoint)
}

func TestEcoSink_RecordPlan(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewEcoSink(map[string]float64{"gasfired": 0.3}, reg)
	require.NoError(t, err)

	rec := sampleRecord()
	assert.Equal(t, map[string]float64{"gasfired": 18}, roundMap(sink.Emissions(rec)))
	require.NoError(t, sink.RecordPlan(rec))
	assert.InDelta(t, 18, testutil.ToFloat64(sink.tonnes.WithLabelValues("gasfired")), 1e-9)
	assert.InDelta(t, 360, testutil.ToFloat64(sink.cost), 1e-9)
}

func TestEcoSink_ConcurrentPlansStayConsistent(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewEcoSink(map[string]float64{"gasfired": 0.3, "turbojet": 0.8}, reg)
	require.NoError(t, err)

	gasPlan := model.PlanRecord{
		Fuels: model.Fuels{CO2: 20},
		Units: []model.UnitDispatch{
			{Name: "gas", Type: model.FuelGas, Usage: 100},
			{Name: "tj", Type: model.FuelTurbojet},
		},
	}
	jetPlan := model.PlanRecord{
		Fuels: model.Fuels{CO2: 10},
		Units: []model.UnitDispatch{
			{Name: "gas", Type: model.FuelGas},
			{Name: "tj", Type: model.FuelTurbojet, Usage: 10},
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		rec := gasPlan
		if i%2 == 1 {
			rec = jetPlan
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.RecordPlan(rec)
		}()
	}
	wg.Wait()

	gas := testutil.ToFloat64(sink.tonnes.WithLabelValues("gasfired"))
	jet := testutil.ToFloat64(sink.tonnes.WithLabelValues("turbojet"))
	cost := testutil.ToFloat64(sink.cost)
	switch {
	case gas > 0:
		assert.InDelta(t, 30, gas, 1e-9)
		assert.Zero(t, jet)
		assert.InDelta(t, 600, cost, 1e-9)
	default:
		assert.InDelta(t, 8, jet, 1e-9)
		assert.InDelta(t, 80, cost, 1e-9)
	}
}

func roundMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = round3(v)
	}
	return out
}

type countingSink struct {
	plans, fallbacks int
	err              error
}

func (c *countingSink) RecordPlan(model.PlanRecord) error { c.plans++; return c.err }
func (c *countingSink) RecordFallback(coremetrics.FallbackEvent) error {
	c.fallbacks++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &countingSink{}
	s2 := &countingSink{err: errors.New("boom")}
	m := NewMultiSink(s1, s2, coremetrics.NopSink{})

	err := m.RecordPlan(sampleRecord())
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 1, s1.plans)
	assert.Equal(t, 1, s2.plans, "later sinks still receive the record")

	require.NoError(t, m.RecordFallback(coremetrics.FallbackEvent{Strategy: "lp"}))
	assert.Equal(t, 1, s1.fallbacks)
	assert.Equal(t, 1, s2.fallbacks)
}

func TestInfluxSink_RecordPlan(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(coremetrics.InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	rec := sampleRecord()
	require.NoError(t, sink.RecordPlan(rec))

	mu.Lock()
	defer mu.Unlock()
	for _, p := range planPoints(rec) {
		line := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
		assert.Contains(t, body, line)
	}
	assert.Contains(t, body, "plan_unit,")
	assert.Contains(t, body, "unit=gasfiredbig1")
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	var called atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called.Store(true)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(coremetrics.InfluxConfig{URL: srv.URL, Org: "org", Bucket: "bucket"})
	assert.True(t, called.Load())
	assert.IsType(t, coremetrics.NopSink{}, sink)
}

func TestNewSink(t *testing.T) {
	sink, err := NewSink(coremetrics.Config{}, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, sink)

	cfg := coremetrics.Config{PrometheusEnabled: true}
	cfg.SetDefaults()
	sink, err = NewSink(cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	multi, ok := sink.(*MultiSink)
	require.True(t, ok)
	assert.Len(t, multi.Sinks, 2)
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordPlan(sampleRecord()))

	rr := httptest.NewRecorder()
	MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `powerplan_unit_setpoint_mw{fuel_type="gasfired",unit="gasfiredbig1"} 60`)
}
