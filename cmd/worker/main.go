package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/sentinel-console/sentinel/internal/app"
	"github.com/sentinel-console/sentinel/internal/auditlog"
	jobmetrics "github.com/sentinel-console/sentinel/internal/jobs"
	"github.com/sentinel-console/sentinel/internal/platform/cache"
	"github.com/sentinel-console/sentinel/internal/platform/db"
	"github.com/sentinel-console/sentinel/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Asynq needs Redis, so the worker refuses to start without it.
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

	logRepo := auditlog.NewRepository(pool)
	logService := auditlog.NewService(logRepo)
	statsCache := auditlog.NewStatsCache(logService, redisClient, logger, cfg.StatsCacheTTL, cfg.GeoCacheTTL)

	metrics := jobmetrics.NewMetrics(nil)
	warmupJob := jobs.NewStatsWarmupJob(statsCache, logger, metrics, cfg.StatsDayWindows)
	geoJob := jobs.NewGeoRefreshJob(statsCache, logger, metrics)

	warmupTask, err := jobs.NewStatsWarmupTask(nil)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	geoTask, err := jobs.NewGeoRefreshTask()
	if err != nil {
		logger.Error("build geo refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStatsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskGeoRefresh, Handler: geoJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/5 * * * *", Task: warmupTask},
			{Spec: "*/15 * * * *", Task: geoTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
