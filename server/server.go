// Package server provides HTTP server management and lifecycle handling for
// the reference registry API. It includes server setup, middleware
// configuration, route management, and graceful shutdown capabilities with
// proper error handling and logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DestYchen/ipharma-hack-2026/config"
	"github.com/DestYchen/ipharma-hack-2026/data"
	"github.com/DestYchen/ipharma-hack-2026/handlers"
	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
	"github.com/DestYchen/ipharma-hack-2026/metrics"
	"github.com/DestYchen/ipharma-hack-2026/synopsis"
)

// Dependencies bundles everything the route handlers need.
type Dependencies struct {
	DataStore     interfaces.DataStore
	Sessions      *data.SessionStore
	RunStore      interfaces.RunStore
	Validator     interfaces.QueryValidator
	Analysis      interfaces.AnalysisClient
	Synopsis      *synopsis.Service
	HealthChecker interfaces.HealthChecker
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router chi.Router
	deps   Dependencies
	config *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 240 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		deps:   deps,
		config: cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(BlockDirectAccessMiddleware) // Put BEFORE RealIPMiddleware to see original RemoteAddr
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(metrics.Metrics)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(RateLimitHandler)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Search and selection
	s.router.Post("/reference/search", handlers.SearchReference(s.deps.DataStore, s.deps.Sessions, s.deps.Validator))
	s.router.Post("/reference/choose", handlers.ChooseReference(s.deps.DataStore, s.deps.Sessions, s.deps.RunStore))

	// Remote analysis
	s.router.Post("/router/analyze", handlers.RouterAnalyze(s.deps.RunStore, s.deps.Analysis))
	s.router.Post("/pipeline/analyze", handlers.PipelineAnalyze(s.deps.DataStore, s.deps.Sessions, s.deps.RunStore, s.deps.Analysis))

	// Run log
	s.router.Get("/runs/list", handlers.ListRuns(s.deps.RunStore))
	s.router.Get("/runs/get", handlers.GetRun(s.deps.RunStore))
	s.router.Post("/runs/delete", handlers.DeleteRun(s.deps.RunStore))

	// Synopsis
	s.router.Post("/synopsis/build", handlers.BuildSynopsis(s.deps.Synopsis))
	s.router.Get("/synopsis/get", handlers.GetSynopsis(s.deps.RunStore))

	// Generated documents
	s.router.Get("/downloads/*", handlers.ServeDownload(s.config.DownloadsDir))

	// Operational endpoints
	s.router.Get("/health", handlers.HealthCheck(s.deps.HealthChecker, s.deps.DataStore, s.deps.Sessions))
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == config.EnvDevelopment {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	// Wait a bit for any ongoing requests to complete
	logging.Info("Waiting for ongoing requests to complete...")
	time.Sleep(2 * time.Second)

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		fmt.Println("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			fmt.Println("Profiling server failed: ", err)
		}
	}()
}
