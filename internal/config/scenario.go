package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pefman/w40k-volley/internal/models"
)

var ErrInvalid = errors.New("invalid scenario")

// Attacker is a loadout plus rules granted for this engagement only
// (stratagems, auras, detachment rules).
type Attacker struct {
	models.Loadout `yaml:",inline"`
	Name           string   `json:"name,omitempty" yaml:"name,omitempty"`
	ExtraRules     []string `json:"extra_rules,omitempty" yaml:"extra_rules,omitempty"`
}

// Target picks the defending unit. Model defaults to the first model line.
type Target struct {
	Faction    string   `json:"faction,omitempty" yaml:"faction,omitempty"`
	Unit       string   `json:"unit" yaml:"unit"`
	Model      string   `json:"model,omitempty" yaml:"model,omitempty"`
	ExtraRules []string `json:"extra_rules,omitempty" yaml:"extra_rules,omitempty"` // e.g. Cover
}

// Scenario describes one batch of simulations.
type Scenario struct {
	Name       string `yaml:"name"`
	CatalogDir string `yaml:"catalog_dir"`

	// Simulation
	Trials    int    `yaml:"trials"`
	Workers   int    `yaml:"workers"` // 0 = GOMAXPROCS
	ChunkSize int    `yaml:"chunk_size"`
	Seed      uint64 `yaml:"seed"` // 0 = time-based
	Distance  int    `yaml:"distance"`

	Attackers []Attacker `yaml:"attackers"`
	Targets   []Target   `yaml:"targets"`

	LogLevel string `yaml:"log_level"`
}

// DefaultScenario returns a scenario with sensible defaults and nothing to
// simulate yet.
func DefaultScenario() Scenario {
	return Scenario{
		Name:       "scenario",
		CatalogDir: "data",
		Trials:     1000,
		ChunkSize:  250,
		Distance:   12,
		LogLevel:   "info",
	}
}

// LoadScenario reads a scenario from a YAML file on top of the defaults.
// If the file doesn't exist, returns defaults.
func LoadScenario(path string) (Scenario, error) {
	cfg := DefaultScenario()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading scenario %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing scenario %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the scenario has something to run.
func (s Scenario) Validate() error {
	switch {
	case len(s.Attackers) == 0:
		return fmt.Errorf("%w: no attackers", ErrInvalid)
	case len(s.Targets) == 0:
		return fmt.Errorf("%w: no targets", ErrInvalid)
	case s.Trials < 1:
		return fmt.Errorf("%w: trials must be positive, got %d", ErrInvalid, s.Trials)
	case s.Distance < 0:
		return fmt.Errorf("%w: negative distance %d", ErrInvalid, s.Distance)
	}
	for i, a := range s.Attackers {
		if a.Unit == "" {
			return fmt.Errorf("%w: attacker %d has no unit", ErrInvalid, i)
		}
	}
	for i, t := range s.Targets {
		if t.Unit == "" {
			return fmt.Errorf("%w: target %d has no unit", ErrInvalid, i)
		}
	}
	return nil
}

// Label is the attacker's display name.
func (a Attacker) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Unit
}
