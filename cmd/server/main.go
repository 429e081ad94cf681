package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/cureworks/pandemic-server-go/internal/config"
	"github.com/cureworks/pandemic-server-go/internal/game"
	"github.com/cureworks/pandemic-server-go/internal/logging"
	"github.com/cureworks/pandemic-server-go/internal/repository"
	"github.com/cureworks/pandemic-server-go/internal/server"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	var live atomic.Pointer[logging.Logger]

	// Only the log level is applied live; other changes need a restart.
	watcher, err := config.Watch(*configPath, func(next *config.Config) {
		logger := live.Load()
		if logger == nil {
			return
		}
		if err := logger.SetLevel(next.Logging.Level); err != nil {
			logger.Warn("ignoring log level change", zap.Error(err))
			return
		}
		logger.Info("configuration reloaded", zap.String("log_level", next.Logging.Level))
	}, func(err error) {
		if logger := live.Load(); logger != nil {
			logger.Warn("ignoring invalid configuration change", zap.Error(err))
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := watcher.Config()

	logger, err := logging.New("pandemic", cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	live.Store(logger)

	logger.Info("starting pandemic server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	store, err := repository.New(ctx, cfg.Database, logger.Logger)
	if err != nil {
		logger.Fatal("failed to open game store", zap.Error(err))
	}
	defer store.Close()

	var recorder *game.ReplayRecorder
	if cfg.Game.ReplayDir != "" {
		recorder = game.NewReplayRecorder(logger.Logger, cfg.Game.ReplayDir)
		logger.Info("replay recording enabled", zap.String("dir", cfg.Game.ReplayDir))
	}

	engine := game.NewEngine(logger.Logger, store, game.EngineConfig{
		EpidemicCards: cfg.Game.EpidemicCards,
		StartingCity:  cfg.Game.StartingCity,
		StandardSetup: cfg.Game.StandardSetup,
	}, recorder)

	wsServer := server.New(cfg.Server.WebSocket, engine, logger.Logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- wsServer.ListenAndServe(ctx)
	}()

	logger.Info("pandemic server initialized",
		zap.String("version", version),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.String("store", cfg.Database.Driver),
		zap.Int("epidemic_cards", cfg.Game.EpidemicCards),
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			logger.Error("websocket server error", zap.Error(err))
		}
	}

	logger.Info("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("websocket server shutdown incomplete", zap.Error(err))
	}
	cancel()

	logger.Info("pandemic server stopped")
}
