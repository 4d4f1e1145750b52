package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/assetflow/internal/timex"
)

// jsonConfig is the on-disk shape of the config file. Intervals use
// timex.Duration so they may be written as "60s" or as nanoseconds.
type jsonConfig struct {
	APIBaseURL      string         `json:"api_base_url"`
	RefreshInterval timex.Duration `json:"refresh_interval"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
	StateDBPath     string         `json:"state_db_path"`
	ReportsDir      string         `json:"reports_dir"`
	MetricsAddr     string         `json:"metrics_addr"`
	Env             string         `json:"env"`
	LogLevel        string         `json:"log_level"`
}

// parseJSON overlays cfg with the non-empty values of the file at path.
func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.StateDBPath, jc.StateDBPath)
	setString(&cfg.ReportsDir, jc.ReportsDir)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	setString(&cfg.Env, jc.Env)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.RefreshInterval.Duration > 0 {
		cfg.RefreshInterval = jc.RefreshInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
