// Package config handles configuration for the AssetFlow backend:
// MOCKAPI_* environment variables with defaults, then command-line flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Port        string        `env:"MOCKAPI_PORT" envDefault:"8080" validate:"required,numeric"`
	Env         string        `env:"MOCKAPI_ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	LogLevel    string        `env:"MOCKAPI_LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
	DatabaseDSN string        `env:"MOCKAPI_DB" envDefault:"assetflow-server.db" validate:"required"`
	UploadDir   string        `env:"MOCKAPI_UPLOAD_DIR" envDefault:"uploads/properties" validate:"required"`
	OTPTTL      time.Duration `env:"MOCKAPI_OTP_TTL" envDefault:"5m" validate:"min=1s"`
	// Seed fills an empty database with demo users and records.
	Seed        bool   `env:"MOCKAPI_SEED" envDefault:"true"`
	MetricsPort string `env:"MOCKAPI_METRICS_PORT" validate:"omitempty,numeric"`
}

// Addr is the listen address for the API.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// LoadConfig reads the environment, overlays command-line flags and
// validates the result.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
