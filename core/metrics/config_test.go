package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, ":9090", c.PrometheusAddr)
	assert.Equal(t, 0.3, c.EmissionFactors["gasfired"])

	c.EmissionFactors["gasfired"] = 0.4
	assert.Equal(t, 0.3, DefaultEmissionFactors["gasfired"], "defaults are copied")
	assert.NoError(t, c.Validate())
}

func TestConfigValidate(t *testing.T) {
	c := Config{Influx: InfluxConfig{Enabled: true, URL: "http://localhost:8086"}}
	assert.Error(t, c.Validate())
	c.Influx.Org, c.Influx.Bucket = "org", "plans"
	assert.NoError(t, c.Validate())

	c.EmissionFactors = map[string]float64{"turbojet": -1}
	assert.Error(t, c.Validate())
}
