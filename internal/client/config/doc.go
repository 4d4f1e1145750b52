// Package config loads runtime configuration for the AssetFlow console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. ASSETFLOW_* environment variables.
//  4. Command-line flags, which override everything else.
//
// The result is validated before LoadConfig returns it.
//
// Supported flags
//
//	-a string   base URL of the AssetFlow API
//	-i int      background refresh interval (seconds)
//	-t int      per-request timeout (seconds)
//	-d string   path of the local state database
//	-m string   metrics listen address (empty disables)
//
// # JSON schema
//
//	{
//	  "api_base_url": "http://127.0.0.1:8080/api",
//	  "refresh_interval": "60s",
//	  "request_timeout": "15s",
//	  "state_db_path": "assetflow.db",
//	  "reports_dir": "reports",
//	  "metrics_addr": ":9100",
//	  "env": "local",
//	  "log_level": "info"
//	}
//
// Environment
//
//	ASSETFLOW_API_URL, ASSETFLOW_REFRESH_INTERVAL, ASSETFLOW_REQUEST_TIMEOUT,
//	ASSETFLOW_STATE_DB, ASSETFLOW_REPORTS_DIR, ASSETFLOW_METRICS_ADDR,
//	ASSETFLOW_ENV, ASSETFLOW_LOG_LEVEL
//
// Durations in the environment use Go syntax ("90s", "2m").
package config
