package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zepto-insights/dashboard/internal/analytics"
	"github.com/zepto-insights/dashboard/internal/analytics/export"
	"github.com/zepto-insights/dashboard/internal/analytics/ui"
	"github.com/zepto-insights/dashboard/internal/catalog"
	"github.com/zepto-insights/dashboard/internal/platform/httpx"
	"github.com/zepto-insights/dashboard/internal/view"
)

const defaultRequestTimeout = 10 * time.Second

// ReportService defines the dashboard data contract used by the handler.
type ReportService interface {
	RenderDashboard(ctx context.Context, sel analytics.Selections) (analytics.Dashboard, error)
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, payload export.DashboardPayload) ([]byte, error)
}

// Options tunes the handler.
type Options struct {
	RequestTimeout time.Duration
	RawRowLimit    int
	ExportLimit    int
}

// Handler coordinates HTTP requests for the product analytics dashboard.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	templates *view.Engine
	renderer  ui.Renderer
	pdf       PDFService
	validate  *validator.Validate
	opts      Options
	csvPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the analytics HTTP handler. pdf may be nil to
// disable the PDF export.
func NewHandler(logger *slog.Logger, service ReportService, templates *view.Engine, renderer ui.Renderer, pdf PDFService, opts Options) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = ui.SVGRenderer{}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.ExportLimit <= 0 {
		opts.ExportLimit = 10
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		renderer:  renderer,
		pdf:       pdf,
		validate:  validator.New(),
		opts:      opts,
		now:       time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		h.renderError(w, r, "parse filters", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	dash, err := h.service.RenderDashboard(ctx, filters.Selections())
	if err != nil {
		h.renderError(w, r, "render report", classify(err))
		return
	}

	vm, err := ui.BuildDashboard(ctx, dash, filters, h.renderer, ui.BuildOptions{
		RawRowLimit: h.opts.RawRowLimit,
		PDFEnabled:  h.pdf != nil,
	})
	if err != nil {
		h.renderError(w, r, "render charts", err)
		return
	}
	vm.Links = buildLinks(r.URL.Query())
	if len(dash.Report.Warnings) > 0 {
		h.logger.Info("dashboard selections degraded", slog.String("render_id", dash.Report.RenderID), slog.Any("warnings", dash.Report.Warnings))
	}

	viewData := view.TemplateData{
		Title:       "Dashboard",
		CurrentPath: r.URL.Path,
		RenderID:    dash.Report.RenderID,
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/dashboard.html", viewData); err != nil {
		h.renderError(w, r, "render template", err)
	}
}

func (h *Handler) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		h.problem(w, "parse filters", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	dash, err := h.service.RenderDashboard(ctx, filters.Selections())
	if err != nil {
		h.problem(w, "render report", classify(err))
		return
	}
	httpx.JSON(w, http.StatusOK, dash.Report)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.problem(w, "pdf exporter", httpx.Status(http.StatusNotFound, "PDF Export Disabled", "PDF export is not configured", errors.New("pdf exporter not configured")))
		return
	}

	filters, err := h.parseFilters(r)
	if err != nil {
		h.problem(w, "parse filters", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	dash, err := h.service.RenderDashboard(ctx, filters.Selections())
	if err != nil {
		h.problem(w, "render report", classify(err))
		return
	}
	vm, err := ui.BuildDashboard(ctx, dash, filters, h.renderer, ui.BuildOptions{RawRowLimit: 1})
	if err != nil {
		h.problem(w, "render charts", err)
		return
	}

	payload := export.DashboardPayload{
		Report: dash.Report,
		Charts: []export.Chart{
			{Title: "Average Price by Category", SVG: vm.PriceSVG},
			{Title: "Average Discount by Category", SVG: vm.DiscountSVG},
			{Title: "Price vs Discount Relationship", SVG: vm.ScatterSVG},
			{Title: "Product Distribution by Category", SVG: vm.DistributionSVG},
			{Title: "Stock Availability Overview", SVG: vm.AvailabilitySVG},
		},
	}
	pdfBytes, err := h.pdf.RenderDashboard(ctx, payload)
	if err != nil {
		h.problem(w, "render pdf", httpx.Status(http.StatusBadGateway, "PDF Render Failed", "", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", h.filename(dash.Report.Table, "pdf")))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		h.problem(w, "parse filters", err)
		return
	}
	raw := r.URL.Query().Get("raw") == "1"

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	dash, err := h.service.RenderDashboard(ctx, filters.Selections())
	if err != nil {
		h.problem(w, "render report", classify(err))
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	kind := "summary"
	if raw {
		kind = "raw"
		err = export.WriteRawCSV(buf, dash.Table)
	} else {
		err = export.WriteReportCSV(buf, dash.Report)
	}
	if err != nil {
		h.problem(w, "write csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", h.filename(dash.Report.Table+"-"+kind, "csv")))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) parseFilters(r *http.Request) (ui.DashboardFilters, error) {
	q := r.URL.Query()
	filters := ui.DashboardFilters{
		Category:         strings.TrimSpace(q.Get("category")),
		DiscountCategory: strings.TrimSpace(q.Get("discount_category")),
	}
	for _, value := range q["scatter"] {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filters.Scatter = append(filters.Scatter, part)
			}
		}
	}
	switch strings.TrimSpace(q.Get("scatter_set")) {
	case "":
		filters.ScatterExplicit = len(filters.Scatter) > 0
	case "1", "true":
		filters.ScatterExplicit = true
	case "0", "false":
	default:
		return ui.DashboardFilters{}, httpx.Status(http.StatusBadRequest, "Invalid Parameter", "scatter_set must be 0 or 1", httpx.ErrValidation)
	}
	if err := h.validate.Struct(filters); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return ui.DashboardFilters{}, httpx.Status(http.StatusBadRequest, "Invalid Parameter", fmt.Sprintf("%s failed %s", strings.ToLower(fieldErrs[0].Field()), fieldErrs[0].Tag()), fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		}
		return ui.DashboardFilters{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return filters, nil
}

// classify maps catalog failures onto HTTP statuses.
func classify(err error) error {
	var missing *catalog.MissingColumnError
	switch {
	case errors.Is(err, catalog.ErrQueryFailure):
		return httpx.Status(http.StatusBadGateway, "Query Failed", "the product table could not be queried", err)
	case errors.Is(err, catalog.ErrDataUnavailable):
		return httpx.Status(http.StatusServiceUnavailable, "Data Unavailable", "product data is currently unavailable", err)
	case errors.As(err, &missing):
		return httpx.Status(http.StatusInternalServerError, "Missing Column", fmt.Sprintf("required column %q is missing from the product table", missing.Column), err)
	case errors.Is(err, catalog.ErrInvalidValue):
		return httpx.Status(http.StatusInternalServerError, "Invalid Data", err.Error(), err)
	case errors.Is(err, catalog.ErrEmptySelection):
		return httpx.Status(http.StatusServiceUnavailable, "No Data", "the product table is empty", err)
	case errors.Is(err, context.DeadlineExceeded):
		return httpx.Status(http.StatusGatewayTimeout, "Timeout", "building the report took too long", err)
	default:
		return err
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, context string, err error) {
	status, title, detail := httpx.StatusOf(err)
	h.logAt(status, context, err)
	page := view.TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Data:        view.ErrorPage{Status: status, Title: title, Detail: detail},
	}
	if rerr := h.templates.RenderStatus(w, status, "pages/error.html", page); rerr != nil {
		h.logError("render error page", rerr)
		http.Error(w, title, status)
	}
}

func (h *Handler) problem(w http.ResponseWriter, context string, err error) {
	status, _, _ := httpx.StatusOf(err)
	h.logAt(status, context, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logAt(status int, context string, err error) {
	if status < http.StatusInternalServerError {
		h.logger.Warn(context, slog.Int("status", status), slog.Any("error", err))
		return
	}
	h.logger.Error(context, slog.Int("status", status), slog.String("outcome", analytics.Outcome(err)), slog.Any("error", err))
}

func (h *Handler) logError(context string, err error) {
	h.logger.Error(context, slog.Any("error", err))
}

func (h *Handler) filename(base, ext string) string {
	return fmt.Sprintf("zepto-analytics-%s-%s.%s", sanitizeFilename(base), h.now().UTC().Format("20060102"), ext)
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, s)
}

func buildLinks(query url.Values) ui.Links {
	encoded := query.Encode()
	with := func(path string, extra ...string) template.URL {
		q := encoded
		for _, e := range extra {
			if q != "" {
				q += "&"
			}
			q += e
		}
		if q == "" {
			return template.URL(path)
		}
		return template.URL(path + "?" + q)
	}
	return ui.Links{
		CSV:    with("/export.csv"),
		RawCSV: with("/export.csv", "raw=1"),
		PDF:    with("/export.pdf"),
		API:    with("/api/report"),
	}
}
