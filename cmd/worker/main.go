package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/synergy-ops/synergy-ops/internal/app"
	"github.com/synergy-ops/synergy-ops/internal/categories"
	"github.com/synergy-ops/synergy-ops/internal/live"
	"github.com/synergy-ops/synergy-ops/internal/platform/cache"
	"github.com/synergy-ops/synergy-ops/internal/platform/db"
	"github.com/synergy-ops/synergy-ops/internal/purchaseorders"
	"github.com/synergy-ops/synergy-ops/internal/rows"
	"github.com/synergy-ops/synergy-ops/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	bus := live.NewBus(redisClient, cfg.EventChannel, logger)

	rowsRepo := rows.NewRepository(pool)
	rowsService := rows.NewService(rowsRepo, bus)
	categoriesRepo := categories.NewRepository(pool)
	categoriesService := categories.NewService(categoriesRepo, bus)
	poRepo := purchaseorders.NewRepository(pool)
	poService := purchaseorders.NewService(poRepo, rowsService, categoriesService)

	now := time.Now().UTC()
	reindexTask, err := jobs.NewRowsReindexTask(now)
	if err != nil {
		logger.Error("build reindex task", slog.Any("error", err))
		os.Exit(1)
	}
	digestTask, err := jobs.NewChatDigestTask(now)
	if err != nil {
		logger.Error("build digest task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPOExplode, Handler: jobs.NewPOExplodeHandler(poService, logger)},
			{Type: jobs.TaskRowsReindex, Handler: jobs.NewRowsReindexHandler(pool, redisClient, logger)},
			{Type: jobs.TaskChatDigest, Handler: jobs.NewChatDigestHandler(pool, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/10 * * * *", Task: reindexTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: "0 8 * * *", Task: digestTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
