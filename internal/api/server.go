package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/psi-indicator-engine/internal/domain"
	"github.com/psi-indicator-engine/internal/engine"
	"github.com/psi-indicator-engine/internal/middleware"
	"github.com/psi-indicator-engine/internal/reference"
	"github.com/psi-indicator-engine/internal/results"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	defaultMaxBatchSize    = 10000
)

// Dependencies are the components the HTTP API serves
type Dependencies struct {
	Engine *engine.Engine
	Holder *reference.Holder
	// Source is reloaded by POST /api/v1/reference/reload. Nil disables reloads.
	Source reference.Source
	// Store persists evaluated batches. Nil disables batch retrieval.
	Store  results.Store
	Logger *logrus.Logger
}

// Server represents the HTTP server
type Server struct {
	cfg     domain.ServerConfig
	version string
	deps    Dependencies
	logger  *logrus.Logger
	router  *gin.Engine
	server  *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *domain.Config, deps Dependencies) (*Server, error) {
	if deps.Engine == nil || deps.Holder == nil {
		return nil, errors.New("api server requires an engine and a reference holder")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}

	// Set Gin mode based on log level
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimit(middleware.NewLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)))

	server := &Server{
		cfg:     cfg.Server,
		version: cfg.MCP.ServerVersion,
		deps:    deps,
		logger:  logger,
		router:  router,
	}
	if server.cfg.MaxBatchSize <= 0 {
		server.cfg.MaxBatchSize = defaultMaxBatchSize
	}

	server.setupRoutes()

	return server, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/indicators", s.handleListIndicators)
		v1.GET("/indicators/:id", s.handleGetIndicator)
		v1.GET("/reference", s.handleGetReference)
		v1.POST("/reference/reload", s.handleReloadReference)
		v1.POST("/evaluate", middleware.RequestTimeout(s.cfg.WriteTimeout), s.handleEvaluate)
		v1.GET("/batches", s.handleListBatches)
		v1.GET("/batches/:id", s.handleGetBatch)
		v1.DELETE("/batches/:id", s.handleDeleteBatch)
		v1.GET("/stream", s.handleStream)
	}
}
