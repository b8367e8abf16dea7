package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDispatcher_Default(t *testing.T) {
	d, err := NewDispatcher(StrategyConfig{})
	require.NoError(t, err)
	assert.Equal(t, StrategyMeritOrder, d.Name())
}

func TestNewDispatcher_LPWithTolerance(t *testing.T) {
	d, err := NewDispatcher(StrategyConfig{Type: StrategyLP, Conf: map[string]any{"tolerance": "1e-9"}})
	require.NoError(t, err)
	lp, ok := d.(*LPDispatcher)
	require.True(t, ok)
	assert.Equal(t, 1e-9, lp.Tolerance)
}

func TestNewDispatcher_Errors(t *testing.T) {
	_, err := NewDispatcher(StrategyConfig{Type: "greedy"})
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	_, err = NewDispatcher(StrategyConfig{Type: StrategyLP, Conf: map[string]any{"unknown": 1}})
	assert.Error(t, err)
}

func TestRegisterStrategy(t *testing.T) {
	assert.Error(t, RegisterStrategy(StrategyMeritOrder, func(map[string]any) (Dispatcher, error) { return MeritOrderDispatcher{}, nil }))
	assert.Error(t, RegisterStrategy("nil", nil))
	assert.Equal(t, []string{StrategyLP, StrategyMeritOrder}, Strategies())
}

func TestConfig(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, StrategyMeritOrder, c.Strategy.Type)
	assert.NoError(t, c.Validate())
	c.Strategy.Type = "nope"
	assert.ErrorIs(t, c.Validate(), ErrUnknownStrategy)
}
