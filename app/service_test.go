package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/powerplan/config"
	"github.com/kilianp07/powerplan/core/model"
)

type fakePublisher struct {
	mu           sync.Mutex
	plans        []model.PlanRecord
	disconnected bool
}

func (f *fakePublisher) PublishPlan(rec model.PlanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, rec)
	return nil
}

func (f *fakePublisher) Disconnect() {
	f.mu.Lock()
	f.disconnected = true
	f.mu.Unlock()
}

const payload = `{
  "load": 200,
  "fuels": {"gas(euro/MWh)": 13.4, "kerosine(euro/MWh)": 50.8, "co2(euro/ton)": 20, "wind(%)": 60},
  "powerplants": [
    {"name": "gasfiredbig1", "type": "gasfired", "efficiency": 0.53, "pmin": 100, "pmax": 460},
    {"name": "windpark1", "type": "windturbine", "efficiency": 1, "pmin": 0, "pmax": 150}
  ]
}`

func defaultConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SetDefaults()
	return cfg
}

func TestServiceServesPlansAndForwardsThem(t *testing.T) {
	pub := &fakePublisher{}
	svc, err := newService(defaultConfig(), pub)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/productionplan"
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plan model.Plan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&plan))
	assert.Equal(t, model.Plan{{Name: "windpark1", P: 90}, {Name: "gasfiredbig1", P: 110}}, plan)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("service did not stop")
	}
	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close(), "close is idempotent")

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.plans, 1)
	assert.Equal(t, plan, pub.plans[0].Plan)
	assert.True(t, pub.disconnected)
}

func TestNewServiceUnknownStrategy(t *testing.T) {
	cfg := defaultConfig()
	cfg.Dispatch.Strategy.Type = "genetic"
	_, err := newService(cfg, nil)
	assert.Error(t, err)
}

func TestNewRejectsBadLogFormat(t *testing.T) {
	cfg := defaultConfig()
	cfg.Logging.Format = "xml"
	_, err := New(cfg)
	assert.Error(t, err)
}
