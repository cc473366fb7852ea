// cmd/worker/main.go — standalone retry-queue drainer, for deployments that
// keep analysis traffic off the API instances.
package main

import (
	"context"
	"log/slog"
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
	} else {
		logger.Warn("OPENAI_API_KEY not set; retries will keep failing until it is")
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

	<-ctx.Done()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer drainCancel()
	if err := w.DrainAndWait(drainCtx); err != nil {
		logger.Warn("shutdown drain timeout; processing jobs will be retried", "err", err)
	}
	logger.Info("shutdown complete")
}
