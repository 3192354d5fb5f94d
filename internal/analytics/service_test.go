package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/zepto-insights/dashboard/internal/catalog"
)

type stubSource struct {
	mu    sync.Mutex
	raw   catalog.RawTable
	err   error
	calls int
}

func (s *stubSource) Fetch(ctx context.Context) (catalog.RawTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.raw, s.err
}

func (s *stubSource) TableName() string { return "zepto" }

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) ObserveRender(outcome string, elapsed time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func scenarioRaw() catalog.RawTable {
	return catalog.RawTable{
		Columns: []string{"Category", "discountPercent", "discountedSellingPrice", "available_quantity"},
		Rows: [][]any{
			{"A", int64(10), float64(100), int64(5)},
			{"A", int64(20), float64(200), int64(0)},
			{"B", int64(0), float64(50), int64(1)},
		},
	}
}

func newCachedService(t *testing.T, src catalog.Source) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(src, NewCache(client, time.Minute)), mr
}

func TestRenderWithoutCacheReloadsEveryTime(t *testing.T) {
	src := &stubSource{raw: scenarioRaw()}
	svc := NewService(src, nil)
	ctx := context.Background()

	report, err := svc.Render(ctx, Selections{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if report.KPIs.TotalProducts != 3 {
		t.Fatalf("expected 3 products, got %d", report.KPIs.TotalProducts)
	}
	if report.RenderID == "" {
		t.Fatalf("expected render id")
	}
	if _, err := svc.Render(ctx, Selections{Category: "B"}); err != nil {
		t.Fatalf("second render: %v", err)
	}
	if src.callCount() != 2 {
		t.Fatalf("expected 2 source calls, got %d", src.callCount())
	}
}

func TestRenderUsesCacheUntilBump(t *testing.T) {
	src := &stubSource{raw: scenarioRaw()}
	svc, _ := newCachedService(t, src)
	ctx := context.Background()

	first, err := svc.Render(ctx, Selections{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := svc.Render(ctx, Selections{Category: "B"})
	if err != nil {
		t.Fatalf("cached render: %v", err)
	}
	if src.callCount() != 1 {
		t.Fatalf("expected cached table, source called %d times", src.callCount())
	}
	if first.RenderID == second.RenderID {
		t.Fatalf("expected distinct render ids")
	}
	if second.SelectedCategory != "B" {
		t.Fatalf("expected selection to be applied on cached table, got %q", second.SelectedCategory)
	}

	ver, err := svc.Invalidate(ctx)
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if ver != 2 {
		t.Fatalf("expected version 2 after bump, got %d", ver)
	}
	if _, err := svc.Render(ctx, Selections{}); err != nil {
		t.Fatalf("render after bump: %v", err)
	}
	if src.callCount() != 2 {
		t.Fatalf("expected reload after bump, source called %d times", src.callCount())
	}
}

func TestRenderPropagatesLoadErrors(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:5432: connection refused")
	src := &stubSource{err: errors.Join(catalog.ErrConnectionFailure, cause)}
	observer := &recordingObserver{}
	svc := NewService(src, nil).WithObserver(observer)

	_, err := svc.Render(context.Background(), Selections{})
	if !errors.Is(err, catalog.ErrDataUnavailable) {
		t.Fatalf("expected data unavailable, got %v", err)
	}
	if len(observer.outcomes) != 1 || observer.outcomes[0] != "connection_failure" {
		t.Fatalf("unexpected outcomes %v", observer.outcomes)
	}
}

func TestRenderMissingColumn(t *testing.T) {
	raw := scenarioRaw()
	raw.Columns[3] = "stock"
	svc := NewService(&stubSource{raw: raw}, nil)

	_, err := svc.Render(context.Background(), Selections{})
	if !errors.Is(err, catalog.ErrMissingColumn) {
		t.Fatalf("expected missing column, got %v", err)
	}
	if Outcome(err) != "missing_column" {
		t.Fatalf("unexpected outcome %s", Outcome(err))
	}
}

func TestTableIdempotentAcrossLoads(t *testing.T) {
	svc := NewService(&stubSource{raw: scenarioRaw()}, nil)
	ctx := context.Background()
	first, err := svc.Table(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := svc.Table(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	a := CategoryAggregates(first)
	b := CategoryAggregates(second)
	if len(a) != len(b) {
		t.Fatalf("aggregate count changed %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("aggregate %d changed: %+v != %+v", i, a[i], b[i])
		}
	}
}

func TestCacheDisabledWithoutTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	if NewCache(client, 0) != nil {
		t.Fatalf("expected nil cache for zero ttl")
	}
	if NewCache(nil, time.Minute) != nil {
		t.Fatalf("expected nil cache without client")
	}
	var c *Cache
	key, err := c.BuildKey(context.Background(), "catalog", "table")
	if err != nil || key != "catalog:table" {
		t.Fatalf("unexpected nil-cache key %q err %v", key, err)
	}
}

func TestCacheVersionedKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	cache := NewCache(client, time.Minute)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, keyTable("zepto"))
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	if key != "catalog:table:zepto:v1" {
		t.Fatalf("unexpected key %s", key)
	}
	if _, err := cache.Bump(ctx); err != nil {
		t.Fatalf("bump: %v", err)
	}
	key, err = cache.BuildKey(ctx, keyTable("zepto"))
	if err != nil {
		t.Fatalf("build key: %v", err)
	}
	if key != "catalog:table:zepto:v2" {
		t.Fatalf("unexpected key after bump %s", key)
	}
}

type gatedSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSource() *gatedSource {
	return &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedSource) Fetch(ctx context.Context) (catalog.RawTable, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-ctx.Done():
		return catalog.RawTable{}, ctx.Err()
	case <-g.release:
		return scenarioRaw(), nil
	}
}

func (g *gatedSource) TableName() string { return "zepto" }

func TestTableSharedLoadSurvivesFirstCallerCancel(t *testing.T) {
	src := newGatedSource()
	svc := NewService(src, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Table(firstCtx)
		firstErr <- err
	}()
	<-src.started

	type result struct {
		table catalog.Table
		err   error
	}
	second := make(chan result, 1)
	go func() {
		table, err := svc.Table(context.Background())
		second <- result{table, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected first caller to see its own cancel, got %v", err)
	}
	close(src.release)

	select {
	case res := <-second:
		if res.err != nil {
			t.Fatalf("second caller failed: %v", res.err)
		}
		if res.table.Len() != 3 {
			t.Fatalf("expected 3 rows, got %d", res.table.Len())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("second caller did not finish")
	}
}

func TestTableSharedLoadIsBounded(t *testing.T) {
	src := newGatedSource()
	svc := NewService(src, nil).WithLoadTimeout(20 * time.Millisecond)

	_, err := svc.Table(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected load deadline, got %v", err)
	}
	if Outcome(err) != "timeout" {
		t.Fatalf("expected timeout outcome, got %s", Outcome(err))
	}
}

func TestListenForInvalidationNeverRewindsVersion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	seen := make(chan int64, 8)
	if err := cache.ListenForInvalidation(ctx, func(v int64) { seen <- v }); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if _, err := cache.Version(ctx); err != nil {
		t.Fatalf("version: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := cache.Bump(ctx); err != nil {
			t.Fatalf("bump: %v", err)
		}
	}
	// a late replay of an older bump and a malformed payload
	for _, payload := range []string{"garbage", "2"} {
		if err := client.Publish(ctx, BumpChannel, payload).Err(); err != nil {
			t.Fatalf("publish %s: %v", payload, err)
		}
	}

	var got []int64
	for len(got) < 3 {
		select {
		case v := <-seen:
			got = append(got, v)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for bumps, got %v", got)
		}
	}
	if got[0] != 2 || got[1] != 3 || got[2] != 2 {
		t.Fatalf("unexpected bump sequence %v", got)
	}
	ver, err := cache.Version(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if ver != 3 {
		t.Fatalf("expected version to stay at 3, got %d", ver)
	}
}
