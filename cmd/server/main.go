package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/assetflow/internal/buildinfo"
	"github.com/dmitrijs2005/assetflow/internal/logging"
	"github.com/dmitrijs2005/assetflow/internal/server"
	"github.com/dmitrijs2005/assetflow/internal/server/config"
	"github.com/gin-gonic/gin"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.Env, logging.ParseLevel(cfg.LogLevel))

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
