//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/powerplan/app"
	"github.com/kilianp07/powerplan/config"
	"github.com/kilianp07/powerplan/infra/mqtt"
	"github.com/kilianp07/powerplan/test/util"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestPlanSetpointsPublishedOverMQTT(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker, err := util.StartBroker(ctx)
	if err != nil {
		t.Skipf("mosquitto container unavailable: %v", err)
	}
	defer broker.Close()

	msgs, stop, err := broker.Subscribe(ctx, mqtt.DefaultTopicPrefix+"/+/setpoint")
	require.NoError(t, err)
	defer stop()

	promAddr := freeAddr(t)
	cfg := &config.Config{}
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = broker.URL
	cfg.MQTT.QoS = 1
	cfg.Metrics.PrometheusEnabled = true
	cfg.Metrics.PrometheusAddr = promAddr
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	svc, err := app.New(cfg)
	require.NoError(t, err)
	defer svc.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srvCtx, srvCancel := context.WithCancel(ctx)
	defer srvCancel()
	go func() { _ = svc.Serve(srvCtx, ln) }()

	payload, err := os.ReadFile("../api/productionplan/testdata/payload1.json")
	require.NoError(t, err)
	resp, err := http.Post("http://"+ln.Addr().String()+"/productionplan", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := map[string]mqtt.Setpoint{}
	for len(got) < 6 {
		select {
		case raw := <-msgs:
			var sp mqtt.Setpoint
			require.NoError(t, json.Unmarshal(raw, &sp))
			got[sp.Unit] = sp
		case <-ctx.Done():
			t.Fatalf("received %d of 6 setpoints", len(got))
		}
	}
	assert.Equal(t, 90, got["windpark1"].SetpointMW)
	assert.Equal(t, 244, got["gasfiredbig1"].SetpointMW)
	assert.Equal(t, 0, got["tj1"].SetpointMW)
	assert.Equal(t, got["windpark1"].PlanID, got["tj1"].PlanID)

	metricCtx, metricCancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer metricCancel()
	require.NoError(t, util.WaitForMetric(metricCtx, "http://"+promAddr+"/metrics", `powerplan_unit_setpoint_mw{fuel_type="windturbine",unit="windpark1"} 90`))
}
