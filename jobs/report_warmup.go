package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/zepto-insights/dashboard/internal/catalog"
	jobmetrics "github.com/zepto-insights/dashboard/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// TableWarmer is the part of analytics.Service the warm-up job drives.
type TableWarmer interface {
	TableName() string
	Table(ctx context.Context) (catalog.Table, error)
	Invalidate(ctx context.Context) (int64, error)
}

// ReportWarmupJob loads the product table ahead of dashboard traffic.
type ReportWarmupJob struct {
	Service TableWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewReportWarmupJob wires dependencies for the warm-up handler.
func NewReportWarmupJob(service TableWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{Service: service, Logger: logger, Metrics: metrics, Timeout: 30 * time.Second}
}

// Handle processes TaskReportWarmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Run(ctx, payload)
	return err
}

// Run performs one warm-up and returns the number of rows loaded.
func (j *ReportWarmupJob) Run(ctx context.Context, payload ReportWarmupPayload) (rows int, err error) {
	tracker := j.metrics().Track(TaskReportWarmup)
	defer func() {
		err = tracker.End(err)
	}()

	table := j.Service.TableName()
	logger := j.logger().With(slog.String("table", table), slog.Bool("refresh", payload.Refresh))
	start := time.Now()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	if payload.Refresh {
		version, bumpErr := j.Service.Invalidate(ctx)
		if bumpErr != nil {
			logger.Error("bump cache version", slog.Any("error", bumpErr))
			return 0, bumpErr
		}
		logger.Info("cache version bumped", slog.Int64("version", version))
	}

	loaded, err := j.Service.Table(ctx)
	if err != nil {
		logger.Error("load product table", slog.Any("error", err))
		return 0, err
	}
	j.metrics().SetTableRows(table, loaded.Len())
	logger.Info("completed report warmup", slog.Int("rows", loaded.Len()), slog.Duration("duration", time.Since(start)))
	return loaded.Len(), nil
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportWarmup))
}

func (j *ReportWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
