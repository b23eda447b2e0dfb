package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/sales/shared"
	"github.com/meridian-erp/meridian-erp/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, MaxConnLifetime: cfg.PGConnLifetime})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	inventoryService := inventory.NewService(inventory.NewRepository(pool), nil, nil, inventory.ServiceConfig{})

	integrityJob := &jobs.SerialIntegrityJob{Checker: inventoryService, Logger: logger}
	totalsJob := &jobs.TotalsRecheckJob{
		Pool:     pool,
		Logger:   logger,
		Currency: shared.NewFormatter(cfg.CurrencyCode, cfg.CurrencyLocale),
	}

	integrityTask, err := jobs.NewSerialIntegrityTask(jobs.SerialIntegrityPayload{})
	if err != nil {
		logger.Error("build serial integrity task", slog.Any("error", err))
		os.Exit(1)
	}
	totalsTask, err := jobs.NewTotalsRecheckTask(jobs.TotalsRecheckPayload{})
	if err != nil {
		logger.Error("build totals recheck task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSerialIntegrity, Handler: integrityJob.Handle},
			{Type: jobs.TaskTotalsRecheck, Handler: totalsJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 1 * * *", Task: totalsTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
