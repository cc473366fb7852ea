package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mi3lix9/health-monitor-360-ig/internal/config"
	"github.com/mi3lix9/health-monitor-360-ig/internal/db"
	"github.com/mi3lix9/health-monitor-360-ig/internal/migrate"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect to database failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrate.Run(ctx, pool, logger); err != nil {
		logger.Error("run migrations failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations complete")
}
