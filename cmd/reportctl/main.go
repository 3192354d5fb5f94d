// Command reportctl inspects and maintains the product analytics report from
// the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zepto-insights/dashboard/internal/app"
	"github.com/zepto-insights/dashboard/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(productionEnv())
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "reportctl:", err)
		os.Exit(1)
	}
}

// productionEnv wires commands to the configured database, cache and queue.
func productionEnv() *env {
	return &env{
		open: func(ctx context.Context) (reportService, func(), error) {
			cfg, err := app.LoadConfig()
			if err != nil {
				return nil, nil, err
			}
			logger := app.NewLogger(cfg)
			backend, err := app.OpenBackend(ctx, cfg, logger)
			if err != nil {
				return nil, nil, err
			}
			return backend.Service(), backend.Close, nil
		},
		enqueue: func(ctx context.Context, refresh bool) (string, error) {
			cfg, err := app.LoadConfig()
			if err != nil {
				return "", err
			}
			if cfg.RedisAddr == "" {
				return "", fmt.Errorf("enqueue requires REDIS_ADDR")
			}
			client, err := jobs.NewClient(cfg.QueueRedis())
			if err != nil {
				return "", err
			}
			defer func() {
				if err := client.Close(); err != nil {
					slog.Default().Warn("asynq client close", slog.Any("error", err))
				}
			}()
			info, err := client.EnqueueWarmup(ctx, refresh)
			if err != nil {
				return "", err
			}
			return info.ID, nil
		},
	}
}
