package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/assetflow/internal/flagx"
)

// parseFlags overlays cfg with command-line flags.
//
// Supported flags (short forms):
//
//	-p string   listen port
//	-d string   SQLite DSN
//	-u string   directory for uploaded property images
//	-m string   metrics port (empty disables)
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-p", "-d", "-u", "-m"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Port, "p", cfg.Port, "listen port")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.UploadDir, "u", cfg.UploadDir, "upload directory")
	fs.StringVar(&cfg.MetricsPort, "m", cfg.MetricsPort, "metrics port")

	return fs.Parse(args)
}
