package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/assetflow/internal/flagx"
	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the AssetFlow console.
//
// Units: RefreshInterval and RequestTimeout are time.Duration values.
// An empty MetricsAddr disables the metrics listener.
type Config struct {
	APIBaseURL      string        `env:"ASSETFLOW_API_URL" validate:"required,url"`
	RefreshInterval time.Duration `env:"ASSETFLOW_REFRESH_INTERVAL" validate:"min=1s"`
	RequestTimeout  time.Duration `env:"ASSETFLOW_REQUEST_TIMEOUT" validate:"min=1s"`
	StateDBPath     string        `env:"ASSETFLOW_STATE_DB" validate:"required"`
	ReportsDir      string        `env:"ASSETFLOW_REPORTS_DIR" validate:"required"`
	MetricsAddr     string        `env:"ASSETFLOW_METRICS_ADDR" validate:"omitempty,hostname_port"`
	Env             string        `env:"ASSETFLOW_ENV" validate:"required,oneof=local staging production"`
	LogLevel        string        `env:"ASSETFLOW_LOG_LEVEL" validate:"required,oneof=debug info warn error"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080/api"
	c.RefreshInterval = 60 * time.Second
	c.RequestTimeout = 15 * time.Second
	c.StateDBPath = "assetflow.db"
	c.ReportsDir = "reports"
	c.MetricsAddr = ""
	c.Env = "local"
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, the JSON file named by -c or
// -config, ASSETFLOW_* environment variables and command-line flags, in that
// order of increasing precedence, and validates the result.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigPathFrom(args); path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
