package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/zepto-insights/dashboard/internal/catalog"
)

// DefaultLoadTimeout bounds a shared table load once it is detached from
// the caller that started it.
const DefaultLoadTimeout = 30 * time.Second

// RenderObserver records the outcome of each report render.
type RenderObserver interface {
	ObserveRender(outcome string, elapsed time.Duration)
}

// Service loads the product table and builds reports from it.
type Service struct {
	source   catalog.Source
	cache    *Cache
	loads    singleflight.Group
	observer RenderObserver
	now      func() time.Time
	timeout  time.Duration
}

// NewService wires a table source with an optional cache.
func NewService(source catalog.Source, cache *Cache) *Service {
	return &Service{source: source, cache: cache, now: time.Now, timeout: DefaultLoadTimeout}
}

// WithLoadTimeout overrides DefaultLoadTimeout.
func (s *Service) WithLoadTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// WithObserver attaches a render observer.
func (s *Service) WithObserver(observer RenderObserver) *Service {
	s.observer = observer
	return s
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// TableName returns the configured product table.
func (s *Service) TableName() string {
	if s.source == nil {
		return catalog.DefaultTable
	}
	return s.source.TableName()
}

// Table loads the normalized product table. Concurrent callers share one
// load, which runs apart from any single caller's cancellation; each caller
// still stops waiting when its own ctx is done.
func (s *Service) Table(ctx context.Context) (catalog.Table, error) {
	name := s.TableName()
	resultCh := s.loads.DoChan(name, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.loadTable(loadCtx, name)
	})
	select {
	case <-ctx.Done():
		return catalog.Table{}, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			return catalog.Table{}, res.Err
		}
		return res.Val.(catalog.Table), nil
	}
}

func (s *Service) loadTable(ctx context.Context, name string) (catalog.Table, error) {
	loader := func(ctx context.Context) (any, error) {
		return catalog.Load(ctx, s.source)
	}
	if s.cache == nil {
		table, err := loader(ctx)
		if err != nil {
			return catalog.Table{}, err
		}
		return table.(catalog.Table), nil
	}
	key, err := s.cache.BuildKey(ctx, keyTable(name))
	if err != nil {
		return catalog.Table{}, err
	}
	var table catalog.Table
	if err := s.cache.FetchJSON(ctx, key, &table, loader); err != nil {
		return catalog.Table{}, err
	}
	return table, nil
}

// Dashboard is a rendered report with the table it was built from.
type Dashboard struct {
	Report ReportOutput
	Table  catalog.Table
}

// Render loads the table and builds a report for the selections.
func (s *Service) Render(ctx context.Context, sel Selections) (ReportOutput, error) {
	dash, err := s.RenderDashboard(ctx, sel)
	if err != nil {
		return ReportOutput{}, err
	}
	return dash.Report, nil
}

// RenderDashboard is Render that also returns the loaded table for the raw
// data viewer.
func (s *Service) RenderDashboard(ctx context.Context, sel Selections) (Dashboard, error) {
	start := s.now()
	dash, err := s.render(ctx, sel)
	if s.observer != nil {
		s.observer.ObserveRender(Outcome(err), s.now().Sub(start))
	}
	return dash, err
}

func (s *Service) render(ctx context.Context, sel Selections) (Dashboard, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	report, err := BuildReport(table, sel)
	if err != nil {
		return Dashboard{}, err
	}
	report.RenderID = uuid.NewString()
	report.GeneratedAt = s.now().UTC()
	return Dashboard{Report: report, Table: table}, nil
}

// Invalidate bumps the cache version so the next render reloads the table.
func (s *Service) Invalidate(ctx context.Context) (int64, error) {
	return s.cache.Bump(ctx)
}

// Outcome classifies a render error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, catalog.ErrConnectionFailure):
		return "connection_failure"
	case errors.Is(err, catalog.ErrQueryFailure):
		return "query_failure"
	case errors.Is(err, catalog.ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, catalog.ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, catalog.ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, catalog.ErrEmptySelection):
		return "empty_selection"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
