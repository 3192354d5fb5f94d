package analytichttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/zepto-insights/dashboard/internal/platform/httpx"
)

const exportWindow = time.Minute

// MountRoutes registers the dashboard page, the JSON report and the exports.
// Exports share a per-client budget of opts.ExportLimit requests per minute.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/", h.handleDashboard)
	r.Get("/api/report", h.handleReportJSON)

	exports := httprate.Limit(h.opts.ExportLimit, exportWindow,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			ip, err := httprate.KeyByIP(r)
			return "export:" + ip, err
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(exportWindow.Seconds())))
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Exports",
				"export limit of "+strconv.Itoa(h.opts.ExportLimit)+" per minute reached")
		}),
	)
	r.With(exports).Get("/export.pdf", h.handlePDF)
	r.With(exports).Get("/export.csv", h.handleCSV)
}
