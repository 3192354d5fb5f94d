package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/zepto-insights/dashboard/internal/analytics"
	"github.com/zepto-insights/dashboard/internal/catalog"
	"github.com/zepto-insights/dashboard/internal/platform/cache"
	"github.com/zepto-insights/dashboard/internal/platform/db"
)

// Backend bundles the product table source, the optional snapshot cache and
// their health checks.
type Backend struct {
	Source catalog.Source
	Cache  *analytics.Cache
	Redis  *redis.Client
	Checks map[string]HealthChecker

	closers []func()
}

// OpenBackend connects the configured database driver and, when enabled, the
// Redis snapshot cache. An unreachable database is logged but not fatal so
// renders report it per request.
func OpenBackend(ctx context.Context, cfg *Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Backend{Checks: map[string]HealthChecker{}}

	switch cfg.DBDriver {
	case DriverPgx:
		pool, err := db.OpenPool(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.Source = catalog.NewPgxSource(pool, cfg.ProductTable)
		b.Checks["database"] = func(ctx context.Context) error { return pool.Ping(ctx) }
	case DriverPostgres, DriverSQLite:
		handle, err := db.Open(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = handle.Close() })
		b.Source = catalog.NewSQLSource(handle, cfg.ProductTable)
		b.Checks["database"] = handle.PingContext
	default:
		return nil, fmt.Errorf("app: unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err := b.Checks["database"](ctx); err != nil {
		logger.Warn("database unreachable at startup", slog.String("driver", cfg.DBDriver), slog.Any("error", err))
	}

	if cfg.CacheEnabled() {
		client, err := cache.New(ctx, cfg.RedisOptions())
		if err != nil {
			logger.Warn("snapshot cache disabled", slog.Any("error", err))
			return b, nil
		}
		b.Redis = client
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.Cache = analytics.NewCache(client, cfg.ReportCacheTTL)
		b.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return b, nil
}

// Service builds the analytics service over the backend.
func (b *Backend) Service() *analytics.Service {
	return analytics.NewService(b.Source, b.Cache)
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
