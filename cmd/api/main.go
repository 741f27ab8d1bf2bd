package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/markdave123-py/Coverly/internal/app"
	"github.com/markdave123-py/Coverly/internal/config"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

func main() {
	// Handle SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	application, err := app.NewApp(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("startup failed", "error", err)
	}
	defer application.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- application.Server.Start() }()

	lg.Info("Coverly is running; DB connected and bootstrapped", "port", cfg.Port)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			lg.Error("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown failed", "error", err)
	}
	lg.Info("shutting down...")
}
