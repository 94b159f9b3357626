package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ocrpipe/ocrpipe/internal/app"
	"github.com/ocrpipe/ocrpipe/internal/bench"
	"github.com/ocrpipe/ocrpipe/internal/common"
	"github.com/ocrpipe/ocrpipe/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build components", "error", err)
		os.Exit(1)
	}

	store, err := bench.OpenStore(ctx, cfg.Store.DSN, logger)
	if err != nil {
		logger.Error("open results store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("close results store", "error", cerr)
		}
	}()

	srv := server.New(components.Pipeline, components.Router, components.Formatter, store, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Server.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
			os.Exit(1)
		}
	}
}
