// Package mcp provides the MCP tool server.
// The lite server needs no external services: reference data comes from a
// bundle file, verdicts are cached in memory and batches go to SQLite.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/psi-indicator-engine/internal/cache"
	"github.com/psi-indicator-engine/internal/config"
	"github.com/psi-indicator-engine/internal/engine"
	"github.com/psi-indicator-engine/internal/indicator"
	"github.com/psi-indicator-engine/internal/logging"
	"github.com/psi-indicator-engine/internal/reference"
	"github.com/psi-indicator-engine/internal/results"
)

const (
	serverName    = "psi-indicator-engine-lite"
	serverVersion = "v0.1.0"
)

// LiteServer is a lightweight MCP server that requires no external databases.
type LiteServer struct {
	config    *config.LiteConfig
	mcpServer *mcp.Server
	engine    *engine.Engine
	holder    *reference.Holder
	source    reference.Source
	store     results.Store
	cache     *cache.MemoryCache
	logger    *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithResultStore sets a custom result store.
func WithResultStore(store results.Store) LiteServerOption {
	return func(s *LiteServer) error {
		s.store = store
		return nil
	}
}

// WithReferenceSource replaces the bundle file source.
func WithReferenceSource(source reference.Source) LiteServerOption {
	return func(s *LiteServer) error {
		if source == nil {
			return errors.New("reference source is nil")
		}
		s.source = source
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// NewLiteServer creates a new lightweight MCP server instance. The
// reference is loaded before any tool is registered; a missing or
// incomplete bundle fails construction.
func NewLiteServer(ctx context.Context, cfg *config.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	server := &LiteServer{
		config: cfg,
		logger: logging.New(cfg.LogLevel, cfg.LogFormat),
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if server.source == nil {
		server.source = reference.NewFileSource(cfg.ReferenceFile)
	}

	registry := indicator.NewRegistry()
	server.holder = reference.NewHolder(server.logger, engine.ReferenceValidator(registry))
	if _, err := server.holder.Reload(ctx, server.source); err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}

	engineOpts := []engine.Option{
		engine.WithWorkers(cfg.Workers),
		engine.WithLogger(server.logger),
	}
	if cfg.CacheMaxItems > 0 {
		memCache, err := cache.NewMemoryCache(cfg.CacheMaxItems)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		server.cache = memCache
		engineOpts = append(engineOpts, engine.WithCache(memCache))
	}

	var err error
	server.engine, err = engine.New(registry, server.holder, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	if server.store == nil {
		store, err := results.NewSQLiteStore(cfg.ResultsDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create result store: %w", err)
		}
		server.store = store
	}

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)
	server.registerTools()

	server.logger.Info("Lite server initialized successfully")
	return server, nil
}

// Start runs the MCP server over stdio until ctx is cancelled or the
// client disconnects.
func (s *LiteServer) Start(ctx context.Context) error {
	ref, _ := s.holder.Current()
	s.logger.WithFields(logrus.Fields{
		"reference_version": ref.Version(),
		"indicators":        s.engine.Registry().Len(),
		"workers":           s.engine.Workers(),
	}).Info("Starting PSI indicator MCP server (lite)")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close result store")
			return err
		}
	}
	return nil
}

// Engine returns the evaluation engine.
func (s *LiteServer) Engine() *engine.Engine {
	return s.engine
}

// ResultStore returns the result store for external access.
func (s *LiteServer) ResultStore() results.Store {
	return s.store
}

// Cache returns the memory cache, nil when caching is disabled.
func (s *LiteServer) Cache() *cache.MemoryCache {
	return s.cache
}
