// Command worker runs the scheduled report warm-up against the Asynq queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zepto-insights/dashboard/internal/app"
	jobmetrics "github.com/zepto-insights/dashboard/internal/jobs"
	"github.com/zepto-insights/dashboard/jobs"
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
	logger := app.NewLogger(cfg).With(slog.String("host", app.Hostname()), slog.String("component", "worker"))

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	if cfg.RedisAddr == "" {
		return errors.New("worker requires REDIS_ADDR")
	}

	backend, err := app.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer backend.Close()

	registry := prometheus.NewRegistry()
	warmup := jobs.NewReportWarmupJob(backend.Service(), logger, jobmetrics.NewMetrics(registry))

	task, err := jobs.NewReportWarmupTask(false)
	if err != nil {
		return fmt.Errorf("build warmup task: %w", err)
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cfg.QueueRedis(),
		Logger:    logger,
		Handlers:  []jobs.TaskHandler{{Type: jobs.TaskReportWarmup, Handler: warmup.Handle}},
		Cron: []jobs.CronRegistration{{
			Spec:    cfg.WarmupCron,
			Task:    task,
			Options: []asynq.Option{asynq.MaxRetry(3), asynq.Queue(jobs.QueueDefault), asynq.Timeout(time.Minute)},
		}},
	})
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}

	if cfg.WorkerMetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerMetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	logger.Info("starting worker", slog.String("cron", cfg.WarmupCron), slog.String("table", cfg.ProductTable))
	return worker.Run(ctx)
}
