// cmd/server/main.go — HTTP API plus the embedded retry worker.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/mi3lix9/health-monitor-360-ig/internal/analysis"
	"github.com/mi3lix9/health-monitor-360-ig/internal/config"
	"github.com/mi3lix9/health-monitor-360-ig/internal/db"
	"github.com/mi3lix9/health-monitor-360-ig/internal/httpserver"
	"github.com/mi3lix9/health-monitor-360-ig/internal/migrate"
	"github.com/mi3lix9/health-monitor-360-ig/internal/retryqueue"
	"github.com/mi3lix9/health-monitor-360-ig/internal/store"
	"github.com/mi3lix9/health-monitor-360-ig/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger.Info("connecting to database")
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect to database failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	if err := migrate.Run(ctx, pool, logger); err != nil {
		logger.Error("run migrations failed", "err", err)
		os.Exit(1)
	}

	// Redis is optional: without it the drain loop runs leaderless, which
	// is safe because the claim transitions are fenced in Postgres.
	var lease worker.Lease
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("parse redis URL failed", "err", err)
			os.Exit(1)
		}
		rc := redis.NewClient(redisOpts)
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.Error("redis ping failed", "err", err)
			os.Exit(1)
		}
		logger.Info("redis connected")
		lease = worker.NewRedisLease(rc, logger)
	}

	readings := store.NewPostgresStore(pool)
	queue := retryqueue.NewService(
		retryqueue.NewPostgresStore(pool),
		logger,
		retryqueue.WithMaxAttempts(cfg.MaxAttempts),
	)

	var classifier analysis.Classifier
	if cfg.OpenAIKey != "" {
		oc, err := analysis.NewOpenAIClassifier(cfg.OpenAIKey, cfg.OpenAIModel, logger)
		if err != nil {
			logger.Error("configure classifier failed", "err", err)
			os.Exit(1)
		}
		classifier = oc
		logger.Info("external classifier configured")
	} else {
		logger.Warn("OPENAI_API_KEY not set; alert readings use fallback analyses only")
	}

	invoker := analysis.NewInvoker(classifier, queue, cfg.InlineTimeout, logger)

	w := worker.New(queue, readings, invoker, worker.Config{
		Interval:      cfg.WorkerInterval,
		BatchSize:     cfg.WorkerBatchSize,
		InvokeTimeout: cfg.InvokeTimeout,
		Lease:         lease,
		Metrics:       worker.NewMetrics(prometheus.DefaultRegisterer),
	}, logger)
	go w.Start(ctx)

	app := httpserver.NewApp(readings, queue, invoker, w, logger)
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: httpserver.NewRouter(app),
	}

	go func() {
		logger.Info("http server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown timeout", "err", err)
	}
	if err := w.DrainAndWait(shutdownCtx); err != nil {
		logger.Warn("worker drain timeout", "err", err)
	}
	logger.Info("shutdown complete")
}
