package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/SeveN7Igor7/studioivosantos/config"
	"github.com/SeveN7Igor7/studioivosantos/internal/bootstrap"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
	"github.com/SeveN7Igor7/studioivosantos/internal/telemetry"
)

func main() {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.NewWithOptions(cfg.LoggerOptions("api"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.TelemetryOptions())
	if err != nil {
		log.Fatalf("setup telemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("wire services: %v", err)
	}
	defer app.Close()

	if cfg.Booking.SeedCatalogue {
		if n, err := app.Catalog.SeedDefaults(ctx, false); err != nil {
			logger.Warn("seed service catalogue", "error", err)
		} else if n > 0 {
			logger.Info("service catalogue seeded", "count", n)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	if err := bootstrap.Run(ctx, cfg.HTTP, app.Router(), logger); err != nil {
		logger.Error("server error", "error", err)
	}
}
