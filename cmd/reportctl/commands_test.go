package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zepto-insights/dashboard/internal/analytics"
	"github.com/zepto-insights/dashboard/internal/catalog"
)

type memorySource struct {
	raw catalog.RawTable
	err error
}

func (s memorySource) TableName() string { return "zepto" }

func (s memorySource) Fetch(ctx context.Context) (catalog.RawTable, error) {
	return s.raw, s.err
}

func sampleRaw() catalog.RawTable {
	return catalog.RawTable{
		Columns: []string{"Category", "discountPercent", "discountedSellingPrice", "availableQuantity"},
		Rows: [][]any{
			{"Fruits", 10.0, 40.0, int64(3)},
			{"Fruits", 20.0, 60.0, int64(0)},
			{"Dairy", 5.0, 25.0, int64(2)},
		},
	}
}

func testEnv(src catalog.Source) (*env, *bool) {
	closed := false
	return &env{
		open: func(ctx context.Context) (reportService, func(), error) {
			return analytics.NewService(src, nil), func() { closed = true }, nil
		},
		enqueue: func(ctx context.Context, refresh bool) (string, error) {
			if refresh {
				return "task-refresh", nil
			}
			return "task-1", nil
		},
	}, &closed
}

func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(e)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSummaryText(t *testing.T) {
	e, closed := testEnv(memorySource{raw: sampleRaw()})
	out, err := run(t, e, "summary", "--category", "Fruits")
	require.NoError(t, err)
	assert.True(t, *closed)
	assert.Contains(t, out, "Total products:  3")
	assert.Contains(t, out, "Avg discount:    11.67%")
	assert.Contains(t, out, "In stock:        2 of 3")
	assert.Contains(t, out, "Average selling price in Fruits is around ₹50")
	assert.Regexp(t, `Dairy\s+1\s+25.00`, out)
}

func TestSummaryJSON(t *testing.T) {
	e, _ := testEnv(memorySource{raw: sampleRaw()})
	out, err := run(t, e, "summary", "--json")
	require.NoError(t, err)

	var report analytics.ReportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.KPIs.TotalProducts)
	assert.Equal(t, []string{"Dairy", "Fruits"}, report.Categories)
	assert.Equal(t, "Dairy", report.SelectedCategory)
}

func TestSummaryPropagatesLoadErrors(t *testing.T) {
	e, _ := testEnv(memorySource{err: catalog.ErrConnectionFailure})
	_, err := run(t, e, "summary")
	require.ErrorIs(t, err, catalog.ErrDataUnavailable)
}

func TestExportToFile(t *testing.T) {
	e, _ := testEnv(memorySource{raw: sampleRaw()})
	path := filepath.Join(t.TempDir(), "report.csv")
	_, err := run(t, e, "export", "-o", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total Products,3")

	out, err := run(t, e, "export", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "category,discount_percent,discounted_selling_price,available_quantity")
}

func TestWarmupAndBump(t *testing.T) {
	e, _ := testEnv(memorySource{raw: sampleRaw()})
	out, err := run(t, e, "warmup")
	require.NoError(t, err)
	assert.Equal(t, "warmed zepto: 3 rows\n", out)

	out, err = run(t, e, "warmup", "--enqueue", "--refresh")
	require.NoError(t, err)
	assert.Equal(t, "enqueued report:warmup task task-refresh\n", out)

	out, err = run(t, e, "bump")
	require.NoError(t, err)
	assert.Contains(t, out, "snapshot cache disabled")
}

func TestOpenFailure(t *testing.T) {
	e := &env{open: func(ctx context.Context) (reportService, func(), error) {
		return nil, nil, errors.New("load config: boom")
	}}
	_, err := run(t, e, "bump")
	require.EqualError(t, err, "load config: boom")
}
