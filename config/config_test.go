package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/powerplan/core/dispatch"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `server:
  host: "0.0.0.0"
  port: 9000
  debug: true
logging:
  level: debug
  format: console
dispatch:
  strategy:
    type: lp
    conf:
      tolerance: 0.000001
metrics:
  prometheus_enabled: true
  influx:
    enabled: true
    url: "http://localhost:8086"
    org: "org"
    bucket: "plans"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "planner"
  qos: 1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"server.addr", cfg.Server.Addr(), "0.0.0.0:9000"},
		{"server.debug", cfg.Server.Debug, true},
		{"server.read_timeout", cfg.Server.ReadTimeoutSeconds, 10},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"logging.format", cfg.Logging.Format, "console"},
		{"dispatch.strategy", cfg.Dispatch.Strategy.Type, dispatch.StrategyLP},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":9090"},
		{"metrics.influx.bucket", cfg.Metrics.Influx.Bucket, "plans"},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.qos", cfg.MQTT.QoS, byte(1)},
		{"mqtt.topic_prefix", cfg.MQTT.TopicPrefix, "powerplan/units"},
		{"mqtt.max_retries", cfg.MQTT.MaxRetries, 3},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}
	assert.InDelta(t, 1e-6, cfg.Dispatch.Strategy.Conf["tolerance"], 1e-12)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"server": {"port": 8080}, "dispatch": {"strategy": {"type": "merit_order"}}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, dispatch.StrategyMeritOrder, cfg.Dispatch.Strategy.Type)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8888", cfg.Server.Addr())
	assert.False(t, cfg.Server.Debug)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, dispatch.StrategyMeritOrder, cfg.Dispatch.Strategy.Type)
	assert.False(t, cfg.Metrics.PrometheusEnabled)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POWERPLAN_SERVER__PORT", "9100")
	t.Setenv("POWERPLAN_SERVER__DEBUG", "true")
	t.Setenv("POWERPLAN_LOGGING__LEVEL", "warn")
	t.Setenv("POWERPLAN_MQTT__TOPIC_PREFIX", "site/b")
	t.Setenv("POWERPLAN_DISPATCH__STRATEGY__TYPE", "lp")
	t.Setenv("POWERPLAN_METRICS__INFLUX__BUCKET", "plans")

	path := writeFile(t, "config.yaml", "server:\n  port: 9000\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "site/b", cfg.MQTT.TopicPrefix)
	assert.Equal(t, dispatch.StrategyLP, cfg.Dispatch.Strategy.Type)
	assert.Equal(t, "plans", cfg.Metrics.Influx.Bucket)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("POWERPLAN_SERVER__PORT", "9100")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Addr())
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]struct {
		file, data string
		contains   string
	}{
		"unsupported format":  {"config.toml", "x = 1", "unsupported config format"},
		"unknown strategy":    {"config.yaml", "dispatch:\n  strategy:\n    type: genetic\n", "dispatch"},
		"influx without url":  {"config.yaml", "metrics:\n  influx:\n    enabled: true\n", "metrics"},
		"mqtt without broker": {"config.yaml", "mqtt:\n  enabled: true\n", "mqtt"},
		"bad log level":       {"config.yaml", "logging:\n  level: loud\n", "logging"},
		"bad port":            {"config.yaml", "server:\n  port: 70000\n", "server"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.file, tc.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
