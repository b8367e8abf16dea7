package metrics

import "fmt"

// InfluxConfig locates the InfluxDB bucket plans are written to.
type InfluxConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Org     string `json:"org"`
	Bucket  string `json:"bucket"`
}

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool         `json:"prometheus_enabled"`
	PrometheusAddr    string       `json:"prometheus_addr"`
	Influx            InfluxConfig `json:"influx"`
	// EmissionFactors maps a fuel type to the tonnes of CO2 emitted per
	// MWh produced.
	EmissionFactors map[string]float64 `json:"emission_factors"`
}

// DefaultEmissionFactors applies when no factor is configured.
var DefaultEmissionFactors = map[string]float64{"gasfired": 0.3}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
	if len(c.EmissionFactors) == 0 {
		c.EmissionFactors = make(map[string]float64, len(DefaultEmissionFactors))
		for k, v := range DefaultEmissionFactors {
			c.EmissionFactors[k] = v
		}
	}
}

// Validate checks the enabled sinks are fully configured.
func (c Config) Validate() error {
	if c.Influx.Enabled {
		if c.Influx.URL == "" || c.Influx.Org == "" || c.Influx.Bucket == "" {
			return fmt.Errorf("influx sink requires url, org and bucket")
		}
	}
	for fuel, f := range c.EmissionFactors {
		if f < 0 {
			return fmt.Errorf("negative emission factor for %s", fuel)
		}
	}
	return nil
}
