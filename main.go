package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DestYchen/ipharma-hack-2026/config"
	"github.com/DestYchen/ipharma-hack-2026/data"
	"github.com/DestYchen/ipharma-hack-2026/health"
	"github.com/DestYchen/ipharma-hack-2026/llmrouter"
	"github.com/DestYchen/ipharma-hack-2026/logging"
	"github.com/DestYchen/ipharma-hack-2026/registryparser"
	"github.com/DestYchen/ipharma-hack-2026/scheduler"
	"github.com/DestYchen/ipharma-hack-2026/server"
	"github.com/DestYchen/ipharma-hack-2026/store"
	"github.com/DestYchen/ipharma-hack-2026/synopsis"
	"github.com/DestYchen/ipharma-hack-2026/validation"
)

// sessionTTL bounds how long a search session stays valid without a choose.
const sessionTTL = 12 * time.Hour

func init() {
	// Read the env variables from the working directory, falling back to
	// the executable directory when started from elsewhere.
	if err := godotenv.Load(); err != nil {
		ex, err := os.Executable()
		if err != nil {
			logging.Error("Failed to get executable path", "error", err)
			os.Exit(1)
		}

		if err := os.Chdir(filepath.Dir(ex)); err != nil {
			logging.Error("Failed to change directory", "error", err)
			os.Exit(1)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs")

	container := data.NewRegistryContainer()
	container.SetServerStartTime(time.Now())

	parser := registryparser.NewParser(cfg.RegistryFile, cfg.RegistryURL)
	registryScheduler := scheduler.NewScheduler(container, parser)
	if err := registryScheduler.Start(); err != nil {
		logging.Error("Failed to start registry scheduler", "error", err)
		os.Exit(1)
	}
	defer registryScheduler.Stop()

	runStore, err := store.Open(cfg.DBPath)
	if err != nil {
		logging.Error("Failed to open run store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer runStore.Close()

	analysisClient := llmrouter.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	synopsisService := synopsis.NewService(runStore, analysisClient, cfg.SynopsisTemplate, cfg.SynopsisPrompt, cfg.DownloadsDir)

	srv := server.NewServer(cfg, server.Dependencies{
		DataStore:     container,
		Sessions:      data.NewSessionStore(sessionTTL),
		RunStore:      runStore,
		Validator:     validation.NewQueryValidator(),
		Analysis:      analysisClient,
		Synopsis:      synopsisService,
		HealthChecker: health.NewHealthChecker(container),
	})

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}
}
