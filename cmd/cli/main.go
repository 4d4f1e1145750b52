package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/buildinfo"
	"github.com/dmitrijs2005/assetflow/internal/client/api"
	"github.com/dmitrijs2005/assetflow/internal/client/cli"
	"github.com/dmitrijs2005/assetflow/internal/client/config"
	"github.com/dmitrijs2005/assetflow/internal/client/credentials"
	"github.com/dmitrijs2005/assetflow/internal/client/localdb"
	"github.com/dmitrijs2005/assetflow/internal/client/session"
	"github.com/dmitrijs2005/assetflow/internal/client/store"
	"github.com/dmitrijs2005/assetflow/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// The console owns stdout; logs go to stderr.
	logger := logging.New(os.Stderr, cfg.Env, logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := localdb.Open(ctx, cfg.StateDBPath)
	if err != nil {
		log.Fatalf("local db: %v", err)
	}
	defer db.Close()

	tokens := credentials.NewTokens(db)

	client, err := api.NewHTTPClient(cfg.APIBaseURL, tokens, api.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		log.Fatalf("api client: %v", err)
	}

	st := store.New(client, logger, prometheus.DefaultRegisterer)
	mgr := session.NewManager(client, tokens, st,
		session.WithRefreshInterval(cfg.RefreshInterval),
		session.WithNotifier(cli.NewNotifier(os.Stdout)),
		session.WithLogger(logger),
	)

	if cfg.MetricsAddr != "" {
		metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "metrics server", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	cli.NewApp(mgr, st, client, cfg.ReportsDir, logger).Run(ctx)
}
