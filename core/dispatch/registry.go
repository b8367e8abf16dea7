package dispatch

import (
	"errors"
	"fmt"

	"github.com/kilianp07/powerplan/core/factory"
)

// ErrUnknownStrategy is returned for strategy names nobody registered.
var ErrUnknownStrategy = errors.New("unknown dispatch strategy")

// StrategyFactory builds a Dispatcher from its raw configuration.
type StrategyFactory = factory.Factory[Dispatcher]

var strategies = factory.NewRegistry[Dispatcher]()

// RegisterStrategy adds a dispatcher factory under the given name.
func RegisterStrategy(name string, f StrategyFactory) error {
	return strategies.Register(name, f)
}

// HasStrategy reports whether a factory is registered under name.
func HasStrategy(name string) bool { return strategies.Has(name) }

// Strategies lists the registered strategy names in lexical order.
func Strategies() []string { return strategies.Names() }

// NewDispatcher instantiates the configured strategy.
func NewDispatcher(cfg StrategyConfig) (Dispatcher, error) {
	if cfg.Type == "" {
		cfg.Type = StrategyMeritOrder
	}
	d, err := strategies.Create(cfg)
	if errors.Is(err, factory.ErrUnknownModule) {
		return nil, unknownStrategy(cfg.Type)
	}
	return d, err
}

func unknownStrategy(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

func init() {
	_ = RegisterStrategy(StrategyMeritOrder, func(map[string]any) (Dispatcher, error) {
		return MeritOrderDispatcher{}, nil
	})
	_ = RegisterStrategy(StrategyLP, func(conf map[string]any) (Dispatcher, error) {
		var c struct {
			Tolerance float64 `json:"tolerance"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, fmt.Errorf("lp strategy conf: %w", err)
		}
		d := NewLPDispatcher()
		if c.Tolerance > 0 {
			d.Tolerance = c.Tolerance
		}
		return d, nil
	})
}
