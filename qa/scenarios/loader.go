// Package scenarios replays planning requests described in YAML files and
// checks the resulting plans. It guards the allocation rules against
// regressions across strategies.
package scenarios

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/powerplan/core/model"
)

type Expected struct {
	// Invalid marks requests the validation layer must reject.
	Invalid  bool              `yaml:"invalid,omitempty"`
	Plan     []model.PlanEntry `yaml:"plan,omitempty"`
	Total    *int              `yaml:"total,omitempty"`
	Unserved *float64          `yaml:"unserved,omitempty"`
}

type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Strategy    string         `yaml:"strategy,omitempty"`
	Conf        map[string]any `yaml:"conf,omitempty"`
	Request     map[string]any `yaml:"request"`
	Expected    Expected       `yaml:"expected"`
}

// RequestJSON renders the request in the wire format of the HTTP API.
func (s Scenario) RequestJSON() ([]byte, error) {
	return json.Marshal(s.Request)
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Request == nil {
		return nil, fmt.Errorf("%s: request is required", path)
	}
	return &sc, nil
}
