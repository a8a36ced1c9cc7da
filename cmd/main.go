package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/yieldai/bridge_service/internal/api/routes"
	"github.com/yieldai/bridge_service/internal/infrastructure/config"
	"github.com/yieldai/bridge_service/internal/infrastructure/database"
	"github.com/yieldai/bridge_service/internal/infrastructure/di"
	"github.com/yieldai/bridge_service/internal/workers/cctp_relay"
	"github.com/yieldai/bridge_service/pkg/graceful"
	"github.com/yieldai/bridge_service/pkg/logger"
	"github.com/yieldai/bridge_service/pkg/security"
	"github.com/yieldai/bridge_service/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.Environment)

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		CollectorURL: cfg.Tracing.CollectorURL,
		Environment:  cfg.Environment,
		SampleRate:   cfg.Tracing.SampleRate,
		Insecure:     cfg.Tracing.Insecure,
		Version:      cfg.Version,
	}
	tracingShutdown, err := tracing.InitTracer(context.Background(), tracingConfig, log.Zap())
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}
	defer tracingShutdown(context.Background())

	// The transfer ledger falls back to memory without a database
	var db *sqlx.DB
	if cfg.Database.URL != "" {
		db, err = database.NewConnection(cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", "error", err)
		}
		if err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Build dependency injection container
	container, err := di.NewContainer(cfg, db, log)
	if err != nil {
		log.Fatal("Failed to create DI container", "error", err)
	}

	router := routes.SetupRoutes(container)

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeoutDuration(),
		WriteTimeout:   cfg.Server.WriteTimeoutDuration(),
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	shutdown := graceful.NewShutdownManager(server, cfg.Server.ShutdownTimeoutDuration(), log)

	if cfg.Relay.Enabled {
		relay := cctp_relay.NewWorker(container.GetBridgeService(), cctp_relay.Config{
			Schedule:  cfg.Relay.Schedule,
			BatchSize: cfg.Relay.BatchSize,
		}, log.Zap())
		if err := relay.Start(); err != nil {
			log.Fatal("Failed to start CCTP relay worker", "error", err)
		}
		shutdown.Register(relay)
	} else {
		log.Info("CCTP relay worker disabled in configuration")
	}

	shutdown.RegisterCloser("container", container)
	if db != nil {
		shutdown.RegisterCloser("database", db)
	}

	go func() {
		log.Info("Starting server",
			"addr", server.Addr,
			"environment", cfg.Environment,
			"iris_url", container.IrisClient.BaseURL(),
			"aptos_url", security.MaskURL(cfg.Aptos.APIURL),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	shutdown.WaitForShutdown()
}
