package scenarios

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/powerplan/api/productionplan"
	"github.com/kilianp07/powerplan/core/dispatch"
	"github.com/kilianp07/powerplan/core/logger"
	"github.com/kilianp07/powerplan/core/model"
	"github.com/kilianp07/powerplan/infra/metrics"
	"github.com/kilianp07/powerplan/internal/eventbus"
)

const unservedTolerance = 1e-6

func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	body, err := sc.RequestJSON()
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	req, err := productionplan.DecodeRequest(bytes.NewReader(body))
	if sc.Expected.Invalid {
		if err == nil {
			t.Fatalf("expected the request to be rejected")
		}
		return
	}
	if err != nil {
		t.Fatalf("decode request: %v", err)
	}

	d, err := dispatch.NewDispatcher(dispatch.StrategyConfig{Type: sc.Strategy, Conf: sc.Conf})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	bus := eventbus.New[model.PlanRecord](1)
	sub := bus.Subscribe()
	mgr, err := dispatch.NewPlanManager(d, sink, bus, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer mgr.Close()

	rec, err := mgr.Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if got := <-sub; got.ID != rec.ID {
		t.Fatalf("bus delivered plan %s, want %s", got.ID, rec.ID)
	}

	if sc.Expected.Plan != nil {
		if len(rec.Plan) != len(sc.Expected.Plan) {
			t.Fatalf("plan has %d entries, want %d: %v", len(rec.Plan), len(sc.Expected.Plan), rec.Plan)
		}
		for i, want := range sc.Expected.Plan {
			if rec.Plan[i] != want {
				t.Errorf("entry %d = %+v, want %+v", i, rec.Plan[i], want)
			}
		}
	}
	if sc.Expected.Total != nil && rec.Plan.Total() != *sc.Expected.Total {
		t.Errorf("total %d, want %d", rec.Plan.Total(), *sc.Expected.Total)
	}
	if sc.Expected.Unserved != nil {
		if diff := rec.Unserved() - *sc.Expected.Unserved; diff > unservedTolerance || diff < -unservedTolerance {
			t.Errorf("unserved %v, want %v", rec.Unserved(), *sc.Expected.Unserved)
		}
	}
	series, err := testutil.GatherAndCount(reg, "powerplan_unit_setpoint_mw")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if series != len(rec.Plan) {
		t.Errorf("setpoint gauge has %d series, want %d", series, len(rec.Plan))
	}
}
