package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zepto-insights/dashboard/internal/analytics"
	"github.com/zepto-insights/dashboard/internal/catalog"
)

func sampleReport(t *testing.T) (analytics.ReportOutput, catalog.Table) {
	t.Helper()
	table := catalog.Table{
		Name:    "zepto",
		Columns: []string{catalog.ColumnCategory, catalog.ColumnDiscountPercent, catalog.ColumnDiscountedPrice, catalog.ColumnAvailableQuantity, "name"},
		Records: []catalog.ProductRecord{
			{Category: "A", DiscountPercent: 10, DiscountedSellingPrice: 100, AvailableQuantity: 5, Extra: map[string]any{"name": "Tea, green"}},
			{Category: "A", DiscountPercent: 20, DiscountedSellingPrice: 200, AvailableQuantity: 0, Extra: map[string]any{"name": "Coffee"}},
			{Category: "B", DiscountPercent: 0, DiscountedSellingPrice: 50, AvailableQuantity: 1},
		},
	}
	report, err := analytics.BuildReport(table, analytics.Selections{})
	require.NoError(t, err)
	return report, table
}

func TestWriteKPICSV(t *testing.T) {
	report, _ := sampleReport(t)
	buf := &bytes.Buffer{}
	if err := WriteKPICSV(buf, report); err != nil {
		t.Fatalf("kpi csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	require.Equal(t, []string{"Total Products", "3"}, records[2])
	require.Equal(t, []string{"Average Discount %", "10.00"}, records[3])
}

func TestWriteCategorySummaryCSV(t *testing.T) {
	report, _ := sampleReport(t)
	buf := &bytes.Buffer{}
	require.NoError(t, WriteCategorySummaryCSV(buf, report.Aggregates))
	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{"A", "2", "150.00", "15.00", "0.50"}, records[1])
	require.Equal(t, []string{"B", "1", "50.00", "0.00", "1.00"}, records[2])
}

func TestWriteRawCSVQuotesValues(t *testing.T) {
	_, table := sampleReport(t)
	buf := &bytes.Buffer{}
	require.NoError(t, WriteRawCSV(buf, table))
	require.Contains(t, buf.String(), "\"Tea, green\"")
	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, "", records[3][4])
}

func TestWriteReportCSVSections(t *testing.T) {
	report, _ := sampleReport(t)
	buf := &bytes.Buffer{}
	require.NoError(t, WriteReportCSV(buf, report))
	out := buf.String()
	require.Equal(t, 2, strings.Count(out, "\n\n"))
	require.Contains(t, out, "Status,Products\nIn Stock,2\nOut of Stock,1\n")
}

func TestPDFExporterRender(t *testing.T) {
	var html string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("unexpected parse error: %v", err)
			return
		}
		file, _, err := r.FormFile("files")
		if err != nil {
			t.Errorf("missing html file: %v", err)
			return
		}
		data, _ := io.ReadAll(file)
		html = string(data)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	report, _ := sampleReport(t)
	exporter := &PDFExporter{Endpoint: srv.URL}
	require.True(t, exporter.Enabled())
	data, err := exporter.RenderDashboard(context.Background(), DashboardPayload{Report: report})
	if err != nil {
		t.Fatalf("pdf render error: %v", err)
	}
	if string(data) != "PDF" {
		t.Fatalf("unexpected payload %q", string(data))
	}
	require.Contains(t, html, "Category Summary")
	require.Contains(t, html, "Typical discount in A: ~15.0%")
}

func TestPDFExporterErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	report, _ := sampleReport(t)
	_, err := (&PDFExporter{Endpoint: srv.URL}).RenderDashboard(context.Background(), DashboardPayload{Report: report})
	require.ErrorContains(t, err, "gotenberg response 503")

	var disabled *PDFExporter
	require.False(t, disabled.Enabled())
	_, err = (&PDFExporter{}).RenderDashboard(context.Background(), DashboardPayload{})
	require.Error(t, err)
}

func TestPDFExporterPing(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"up"}`)
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL + "/"}
	require.NoError(t, exporter.Ping(context.Background()))
	healthy = false
	require.ErrorContains(t, exporter.Ping(context.Background()), "status 503")
	require.Error(t, (&PDFExporter{}).Ping(context.Background()))
}
