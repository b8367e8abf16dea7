package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/powerplan/core/logger"
	"github.com/kilianp07/powerplan/core/metrics"
	"github.com/kilianp07/powerplan/core/model"
	"github.com/kilianp07/powerplan/internal/eventbus"
)

// unservedTolerance absorbs float noise when comparing served power to load.
const unservedTolerance = 1e-6

// PlanManager runs a Dispatcher for each request and reports the outcome to
// metrics, logs and bus subscribers. The dispatcher itself stays pure.
type PlanManager struct {
	dispatcher Dispatcher
	metrics    metrics.MetricsSink
	bus        *eventbus.Bus[model.PlanRecord]
	logger     logger.Logger
	now        func() time.Time
	newID      func() string
}

// NewPlanManager wires a manager. Nil sink, bus and logger are allowed.
func NewPlanManager(d Dispatcher, sink metrics.MetricsSink, bus *eventbus.Bus[model.PlanRecord], log logger.Logger) (*PlanManager, error) {
	if d == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	m := &PlanManager{
		dispatcher: d,
		metrics:    sink,
		bus:        bus,
		logger:     log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	if lp, ok := d.(*LPDispatcher); ok && lp.OnFallback == nil {
		lp.OnFallback = m.onFallback
	}
	return m, nil
}

// Strategy returns the name of the underlying dispatcher.
func (m *PlanManager) Strategy() string { return m.dispatcher.Name() }

func (m *PlanManager) onFallback(err error) {
	name := m.dispatcher.Name()
	fallbacksTotal.WithLabelValues(name).Inc()
	m.logger.Warnf("%s strategy fell back to merit order: %v", name, err)
	if rec, ok := m.metrics.(metrics.FallbackRecorder); ok {
		ev := metrics.FallbackEvent{Strategy: name, Reason: err.Error(), Time: m.now()}
		if rerr := rec.RecordFallback(ev); rerr != nil {
			m.logger.Errorf("record fallback: %v", rerr)
		}
	}
}

// Plan computes the production plan for req. Under-capacity is reported in
// the record and logs, never as an error.
func (m *PlanManager) Plan(ctx context.Context, req model.PlanRequest) (model.PlanRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.PlanRecord{}, err
	}
	name := m.dispatcher.Name()
	start := m.now()
	rows := m.dispatcher.Dispatch(req)
	elapsed := m.now().Sub(start)

	rec := model.PlanRecord{
		ID:        m.newID(),
		Timestamp: start,
		Strategy:  name,
		Load:      req.Load,
		Fuels:     req.Fuels,
		Units:     unitsFromRows(rows),
		Plan:      ShapePlan(rows),
	}

	plansTotal.WithLabelValues(name).Inc()
	planDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	unserved := rec.Unserved()
	unservedLoad.Set(unserved)

	m.logger.Debugw("plan computed", map[string]any{
		"plan_id":  rec.ID,
		"strategy": name,
		"load":     req.Load,
		"served":   rec.Served(),
		"plants":   len(rows),
		"elapsed":  elapsed.String(),
	})
	if unserved > unservedTolerance {
		m.logger.Warnf("plan %s leaves %.3f MW of %.3f MW unserved", rec.ID, unserved, req.Load)
	}
	if err := m.metrics.RecordPlan(rec); err != nil {
		m.logger.Errorf("record plan %s: %v", rec.ID, err)
	}
	if m.bus != nil {
		m.bus.Publish(rec)
	}
	return rec, nil
}

func unitsFromRows(rows []DispatchRow) []model.UnitDispatch {
	units := make([]model.UnitDispatch, len(rows))
	for i, r := range rows {
		units[i] = model.UnitDispatch{
			Name:           r.Plant.Name,
			Type:           r.Plant.Type,
			Cost:           r.Cost,
			Usage:          r.Usage,
			MinGeneratable: r.MinGeneratable,
			MaxGeneratable: r.MaxGeneratable,
		}
	}
	return units
}

// Close releases the bus.
func (m *PlanManager) Close() error {
	if m.bus != nil {
		m.bus.Close()
	}
	return nil
}
