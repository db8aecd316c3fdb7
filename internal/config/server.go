package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server holds the API server settings, read from the environment.
type Server struct {
	Port          string        `env:"PORT"               envDefault:"8080"`
	CatalogDir    string        `env:"SIM_CATALOG_DIR"    envDefault:"data"`
	DataAPI       string        `env:"SIM_DATA_API"`
	DataAPITTL    time.Duration `env:"SIM_DATA_API_TTL"   envDefault:"5m"`
	DefaultTrials int           `env:"SIM_DEFAULT_TRIALS" envDefault:"1000"`
	MaxTrials     int           `env:"SIM_MAX_TRIALS"     envDefault:"100000"`
	Workers       int           `env:"SIM_WORKERS"        envDefault:"0"`
	LogLevel      string        `env:"SIM_LOG_LEVEL"      envDefault:"info"`
	Development   bool          `env:"SIM_DEV"`
	AllowedOrigin string        `env:"SIM_ALLOWED_ORIGIN" envDefault:"*"`
}

// LoadServer parses the environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxTrials < 1 {
		cfg.MaxTrials = 1
	}
	cfg.DefaultTrials = max(1, min(cfg.DefaultTrials, cfg.MaxTrials))
	return cfg, nil
}

// ClampTrials bounds a requested trial count; 0 means the default.
func (s Server) ClampTrials(n int) int {
	if n <= 0 {
		return s.DefaultTrials
	}
	return min(n, s.MaxTrials)
}
