package dispatch

import "github.com/kilianp07/powerplan/core/factory"

// StrategyConfig selects a dispatcher by registry name. Conf holds the
// strategy specific options.
type StrategyConfig = factory.ModuleConfig

// Config defines dispatch-related settings.
type Config struct {
	Strategy StrategyConfig `json:"strategy"`
}

// SetDefaults selects merit order when no strategy is configured.
func (c *Config) SetDefaults() {
	if c.Strategy.Type == "" {
		c.Strategy.Type = StrategyMeritOrder
	}
}

// Validate checks the strategy is registered.
func (c Config) Validate() error {
	if !HasStrategy(c.Strategy.Type) {
		return unknownStrategy(c.Strategy.Type)
	}
	return nil
}
