// Package server wires the AssetFlow backend together: storage, services,
// the HTTP API and the optional metrics endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/filex"
	"github.com/dmitrijs2005/assetflow/internal/logging"
	"github.com/dmitrijs2005/assetflow/internal/server/config"
	"github.com/dmitrijs2005/assetflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/assetflow/internal/server/rest"
	"github.com/dmitrijs2005/assetflow/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	config   *config.Config
	logger   *logging.SlogLogger
	db       *sql.DB
	registry *prometheus.Registry
	router   http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config, logger *logging.SlogLogger) (*App, error) {
	rm := repomanager.NewSQLiteRepositoryManager()
	db, err := repomanager.Open(ctx, cfg.DatabaseDSN, rm)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if cfg.Seed {
		seeded, err := services.Seed(ctx, db, rm, time.Now())
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		if seeded {
			logger.Info(ctx, "database seeded", "dsn", cfg.DatabaseDSN)
		}
	}

	uploadDir, err := filex.EnsureDir(cfg.UploadDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("upload dir: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	auth := services.NewAuthService(db, rm, cfg.OTPTTL, logger)
	records := services.NewRecordService(db, rm)
	h := rest.NewHandler(auth, records, services.NewReportService(records), services.NewImageStore(uploadDir), logger)

	router := rest.NewRouter(h, rest.RouterOptions{Registerer: reg, AccessLog: logger.Slog()})

	return &App{config: cfg, logger: logger, db: db, registry: reg, router: router}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// serve runs s until ctx is done. A failure stops the whole app.
func (app *App) serve(ctx context.Context, cancelFunc context.CancelFunc, s *rest.Server) {
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	return mux
}

// Run serves the API, and metrics when a metrics port is configured, until
// ctx is done or a signal arrives. The database is closed on return.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "env", app.config.Env)
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, rest.NewServer(app.config.Addr(), app.router, app.logger))
	}()

	if app.config.MetricsPort != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.serve(ctx, cancelFunc, rest.NewServer(":"+app.config.MetricsPort, app.metricsHandler(), app.logger))
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "close db", "error", err)
	}
	app.logger.Info(ctx, "app stopped")
}
