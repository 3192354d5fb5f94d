// Command dashboard serves the product analytics dashboard over HTTP.
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

	"github.com/zepto-insights/dashboard/internal/analytics/export"
	analytichttp "github.com/zepto-insights/dashboard/internal/analytics/http"
	"github.com/zepto-insights/dashboard/internal/analytics/ui"
	"github.com/zepto-insights/dashboard/internal/app"
	"github.com/zepto-insights/dashboard/internal/observability"
	"github.com/zepto-insights/dashboard/internal/view"
	"github.com/zepto-insights/dashboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg).With(slog.String("host", app.Hostname()))

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("dashboard stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	backend, err := app.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer backend.Close()

	onBump := func(version int64) {
		logger.Info("catalog cache bumped", slog.Int64("version", version))
	}
	if err := backend.Cache.ListenForInvalidation(ctx, onBump); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	metrics := observability.NewMetrics()
	service := backend.Service().WithObserver(metrics)

	if cfg.WarmupOnStart {
		go func() {
			job := jobs.NewReportWarmupJob(service, logger, metrics.Jobs())
			if _, err := job.Run(ctx, jobs.ReportWarmupPayload{}); err != nil {
				logger.Warn("startup warmup failed", slog.Any("error", err))
			}
		}()
	}

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	var pdf analytichttp.PDFService
	if cfg.PDFEnabled() {
		exporter := &export.PDFExporter{Endpoint: cfg.GotenbergURL, Client: &http.Client{Timeout: 30 * time.Second}}
		backend.Checks["gotenberg"] = exporter.Ping
		pdf = exporter
	}

	params := app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics,
		Checks:  backend.Checks,
		AnalyticsHandler: analytichttp.NewHandler(logger, service, templates, ui.SVGRenderer{}, pdf, analytichttp.Options{
			RequestTimeout: cfg.AppRequestTimeout,
			RawRowLimit:    cfg.RawRowLimit,
			ExportLimit:    cfg.ExportLimit,
		}),
	}
	if cfg.RedisAddr != "" {
		inspector := asynq.NewInspector(cfg.QueueRedis())
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		params.JobHandler = jobs.NewHandler(inspector, logger)
	}

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           app.NewRouter(params),
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("table", service.TableName()),
			slog.Bool("cache", backend.Cache != nil),
			slog.Bool("pdf", pdf != nil))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
