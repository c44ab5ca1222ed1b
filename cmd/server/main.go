package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thanhnp/pow-ledger/internal/api"
	"github.com/thanhnp/pow-ledger/internal/config"
	"github.com/thanhnp/pow-ledger/internal/ledger"
	"github.com/thanhnp/pow-ledger/internal/logging"
	"github.com/thanhnp/pow-ledger/internal/notifier"
	"github.com/thanhnp/pow-ledger/internal/storage"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	fatal := func(msg string, err error) {
		logger.Error(msg, "error", err)
		os.Exit(1)
	}

	logger.Info("starting ledger server", "difficulty", cfg.Chain.Difficulty, "engine", cfg.Storage.Engine)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("opening database", "engine", cfg.Storage.Engine, "path", cfg.Storage.Path)
	db, err := storage.Open(cfg.Storage.Engine, cfg.Storage.Path)
	if err != nil {
		fatal("failed to open database", err)
	}
	db.SetNoSync(cfg.Storage.NoSync)

	miningNotifier := notifier.NewMiningNotifier(notifier.DefaultQueueSize, logger)
	if err := miningNotifier.Start(ctx); err != nil {
		fatal("failed to start notifier", err)
	}

	service, err := ledger.Open(ctx, ledger.Options{
		Difficulty:  cfg.Chain.Difficulty,
		Store:       db,
		Sink:        miningNotifier,
		Logger:      logger,
		AllowTamper: cfg.Chain.AllowTamper,
	})
	if err != nil {
		fatal("failed to open ledger", err)
	}
	if cfg.Chain.AllowTamper {
		logger.Warn("tamper endpoint enabled, do not expose this server")
	}

	router := api.NewRouter(service, miningNotifier, cfg.Server.RateLimit, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Engine(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // mining requests hold the connection
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in goroutine
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("HTTP server error", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop the notifier, closing event streams
	cancel()
	if err := miningNotifier.Stop(); err != nil {
		logger.Error("error stopping notifier", "error", err)
	}

	if err := db.Sync(); err != nil {
		logger.Error("error syncing database", "error", err)
	}
	if err := db.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}

	logger.Info("server stopped")
}
