package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/zepto-insights/dashboard/internal/analytics"
)

// DashboardPayload aggregates report data destined for PDF rendering.
type DashboardPayload struct {
	Report analytics.ReportOutput
	Charts []Chart
}

// Chart is a pre-rendered SVG section of the PDF.
type Chart struct {
	Title string
	SVG   template.HTML
}

// PDFExporter wraps Gotenberg interactions for dashboard exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// Enabled reports whether a Gotenberg endpoint is configured.
func (p *PDFExporter) Enabled() bool {
	return p != nil && strings.TrimSpace(p.Endpoint) != ""
}

// Ping checks that the Gotenberg service answers its health endpoint.
func (p *PDFExporter) Ping(ctx context.Context) error {
	if !p.Enabled() {
		return fmt.Errorf("gotenberg endpoint required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(p.Endpoint, "/")+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.client().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

func (p *PDFExporter) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

// RenderDashboard sends HTML content to Gotenberg and returns the PDF bytes.
func (p *PDFExporter) RenderDashboard(ctx context.Context, payload DashboardPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	html, err := buildHTML(payload)
	if err != nil {
		return nil, err
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500ms"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

var pdfTemplate = template.Must(template.New("pdf").Funcs(template.FuncMap{
	"num":     analytics.FormatNumber,
	"percent": func(ratio float64) string { return analytics.FormatNumber(ratio*100, 1) + "%" },
	"ts":      func(t time.Time) string { return t.Format("02 Jan 2006 15:04 MST") },
}).Parse(`<html><head><meta charset="utf-8"><style>
body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}
th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;}
.metric-label{text-align:left;}.insight{background:#f1f5f9;padding:8px 12px;border-left:3px solid #2563eb;}
</style></head><body>
<h1>Zepto Product Analytics – {{.Report.Table}}</h1>
<p>Generated {{ts .Report.GeneratedAt}}</p>
<section><h2>KPI Summary</h2><table><tbody>
<tr><td class="metric-label">Total Products</td><td>{{.Report.KPIs.TotalProducts}}</td></tr>
<tr><td class="metric-label">Average Discount %</td><td>{{with .Report.KPIs.AvgDiscountPercent}}{{num . 2}}{{else}}n/a{{end}}</td></tr>
<tr><td class="metric-label">In Stock</td><td>{{.Report.StockStatus.InStock}}</td></tr>
<tr><td class="metric-label">Out of Stock</td><td>{{.Report.StockStatus.OutOfStock}}</td></tr>
</tbody></table></section>
{{range .Charts}}<section><h2>{{.Title}}</h2>{{.SVG}}</section>{{end}}
{{if .Report.Aggregates}}<section><h2>Category Summary</h2><table><thead><tr><th>Category</th><th>Products</th><th>Avg Price</th><th>Avg Discount %</th><th>In Stock</th></tr></thead><tbody>
{{range .Report.Aggregates}}<tr><td class="metric-label">{{.Category}}</td><td>{{.Products}}</td><td>₹{{num .AvgPrice 2}}</td><td>{{num .AvgDiscount 1}}</td><td>{{percent .InStockRatio}}</td></tr>
{{end}}</tbody></table></section>{{end}}
{{if .Report.Insights}}<section><h2>Insights</h2>{{range .Report.Insights}}<p class="insight"><strong>{{.Title}}:</strong> {{.Text}}</p>{{end}}</section>{{end}}
</body></html>`))

func buildHTML(payload DashboardPayload) (string, error) {
	var b strings.Builder
	if err := pdfTemplate.Execute(&b, payload); err != nil {
		return "", fmt.Errorf("export: render pdf html: %w", err)
	}
	return b.String(), nil
}
