package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/psi-indicator-engine/internal/api"
	"github.com/psi-indicator-engine/internal/cache"
	"github.com/psi-indicator-engine/internal/config"
	"github.com/psi-indicator-engine/internal/database"
	"github.com/psi-indicator-engine/internal/domain"
	"github.com/psi-indicator-engine/internal/engine"
	"github.com/psi-indicator-engine/internal/indicator"
	"github.com/psi-indicator-engine/internal/logging"
	"github.com/psi-indicator-engine/internal/reference"
	"github.com/psi-indicator-engine/internal/results"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger, logCloser, err := logging.FromConfig(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	defer logCloser.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) error {
	deps := api.Dependencies{Logger: logger}

	var db *database.DB
	if cfg.Database.Enabled {
		dbConfig := database.ConfigFromDomain(cfg.Database)
		conn, err := database.NewConnection(ctx, dbConfig, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		db = conn

		if err := migrate(dbConfig.URL(), cfg.Database.MigrationsPath, logger); err != nil {
			return err
		}

		store, err := results.NewPostgresStoreFromURL(dbConfig.URL())
		if err != nil {
			return err
		}
		defer store.Close()
		deps.Store = store
	}

	switch cfg.Reference.Source {
	case "postgres":
		deps.Source = reference.NewPostgresSource(db.Pool, cfg.Reference.Version, logger)
	default:
		deps.Source = reference.NewFileSource(cfg.Reference.File)
	}

	registry := indicator.NewRegistry()
	deps.Holder = reference.NewHolder(logger, engine.ReferenceValidator(registry))
	if _, err := deps.Holder.Reload(ctx, deps.Source); err != nil {
		return err
	}

	opts := []engine.Option{
		engine.WithWorkers(cfg.Engine.Workers),
		engine.WithLogger(logger),
	}
	verdictCache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		return err
	}
	if verdictCache != nil {
		defer cache.Close(verdictCache)
		opts = append(opts, engine.WithCache(verdictCache))
	}

	deps.Engine, err = engine.New(registry, deps.Holder, opts...)
	if err != nil {
		return err
	}

	server, err := api.NewServer(cfg, deps)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"host":     cfg.Server.Host,
		"port":     cfg.Server.Port,
		"database": cfg.Database.Enabled,
		"cache":    verdictCache != nil,
		"source":   deps.Source.Name(),
	}).Info("Starting PSI indicator engine")

	return server.Start(ctx)
}

func migrate(databaseURL, migrationsPath string, logger *logrus.Logger) error {
	var (
		runner *database.MigrationRunner
		err    error
	)
	if migrationsPath != "" {
		runner, err = database.NewMigrationRunnerFromPath(databaseURL, migrationsPath, logger)
	} else {
		runner, err = database.NewMigrationRunner(databaseURL, logger)
	}
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.Up()
}
