package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/flagx"
)

// parseFlags overlays cfg with the command-line flags it knows about.
// Other flags in args are ignored.
//
//	-a string   base URL of the AssetFlow API
//	-i int      background refresh interval (seconds)
//	-t int      per-request timeout (seconds)
//	-d string   path of the local state database
//	-m string   address of the metrics listener
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-t", "-d", "-m"})

	fs := flag.NewFlagSet("assetflow", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the AssetFlow API")
	refresh := fs.Int("i", int(cfg.RefreshInterval.Seconds()), "background refresh interval (in seconds)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.StateDBPath, "d", cfg.StateDBPath, "path of the local state database")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address, empty to disable")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.RefreshInterval = time.Duration(*refresh) * time.Second
	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
