package ui

import (
	"context"
	"fmt"
	"html/template"

	"golang.org/x/sync/errgroup"

	"github.com/zepto-insights/dashboard/internal/analytics"
	"github.com/zepto-insights/dashboard/internal/analytics/svg"
)

// Chart dimensions used by the dashboard page.
const (
	chartWidth  = 720
	chartHeight = 320
)

// DefaultRawRowLimit caps the rows rendered in the raw data viewer.
const DefaultRawRowLimit = 500

// Option is one entry of a selector control.
type Option struct {
	Value    string
	Selected bool
}

// DashboardFilters represents sanitized query filters used by the dashboard.
type DashboardFilters struct {
	Category         string   `validate:"max=128"`
	Scatter          []string `validate:"max=64,dive,max=128"`
	ScatterExplicit  bool
	DiscountCategory string `validate:"max=128"`
}

// Selections converts the filters into analytics selections.
func (f DashboardFilters) Selections() analytics.Selections {
	return analytics.Selections{
		Category:          f.Category,
		ScatterCategories: f.Scatter,
		ScatterExplicit:   f.ScatterExplicit,
		DiscountCategory:  f.DiscountCategory,
	}
}

// RawTable is the collapsible data viewer at the bottom of the page.
type RawTable struct {
	Columns   []string
	Rows      [][]string
	Total     int
	Truncated bool
}

// Links are the export and API URLs for the current filters.
type Links struct {
	CSV    template.URL
	RawCSV template.URL
	PDF    template.URL
	API    template.URL
}

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	Report  analytics.ReportOutput
	Filters DashboardFilters

	CategoryOptions []Option
	ScatterOptions  []Option
	DiscountOptions []Option

	PriceSVG        template.HTML
	DiscountSVG     template.HTML
	ScatterSVG      template.HTML
	DistributionSVG template.HTML
	AvailabilitySVG template.HTML

	PriceInsight          *analytics.Insight
	DiscountInsight       *analytics.Insight
	StockInsight          *analytics.Insight
	ScatterInsight        *analytics.Insight
	DistributionInsight   *analytics.Insight
	AvailabilityInsight   *analytics.Insight
	Recommendation        *analytics.Insight
	RecommendationCaption string

	Raw        RawTable
	Links      Links
	PDFEnabled bool
}

// BarRenderer abstracts SVG bar chart rendering for the dashboard.
type BarRenderer interface {
	Bars(width, height int, values []float64, labels []string, opts svg.BarOpts) (template.HTML, error)
}

// ScatterRenderer abstracts SVG scatter rendering for the dashboard.
type ScatterRenderer interface {
	Scatter(width, height int, points []svg.Point, opts svg.ScatterOpts) (template.HTML, error)
}

// Renderer draws every dashboard chart.
type Renderer interface {
	BarRenderer
	ScatterRenderer
}

// SVGRenderer renders charts with the svg package.
type SVGRenderer struct{}

// Bars implements BarRenderer.
func (SVGRenderer) Bars(width, height int, values []float64, labels []string, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, values, labels, opts)
}

// Scatter implements ScatterRenderer.
func (SVGRenderer) Scatter(width, height int, points []svg.Point, opts svg.ScatterOpts) (template.HTML, error) {
	return svg.Scatter(width, height, points, opts)
}

// BuildOptions controls BuildDashboard.
type BuildOptions struct {
	RawRowLimit int
	PDFEnabled  bool
}

// BuildDashboard assembles the view model, rendering the charts concurrently.
func BuildDashboard(ctx context.Context, dash analytics.Dashboard, filters DashboardFilters, renderer Renderer, opts BuildOptions) (DashboardViewModel, error) {
	if renderer == nil {
		renderer = SVGRenderer{}
	}
	report := dash.Report
	vm := DashboardViewModel{
		Report:                report,
		Filters:               filters,
		CategoryOptions:       singleOptions(report.Categories, report.SelectedCategory),
		ScatterOptions:        multiOptions(report.Categories, report.Scatter.Categories),
		DiscountOptions:       singleOptions(report.Categories, report.DiscountCategory),
		RecommendationCaption: analytics.RecommendationCaption,
		PDFEnabled:            opts.PDFEnabled,
	}
	vm.PriceInsight = insight(report, analytics.InsightPrice)
	vm.DiscountInsight = insight(report, analytics.InsightDiscount)
	vm.StockInsight = insight(report, analytics.InsightStock)
	vm.ScatterInsight = insight(report, analytics.InsightScatter)
	vm.DistributionInsight = insight(report, analytics.InsightDistribution)
	vm.AvailabilityInsight = insight(report, analytics.InsightAvailability)
	vm.Recommendation = insight(report, analytics.InsightRecommendation)

	limit := opts.RawRowLimit
	if limit <= 0 {
		limit = DefaultRawRowLimit
	}
	rows := dash.Table.Rows()
	vm.Raw = RawTable{Columns: dash.Table.Columns, Rows: rows, Total: len(rows)}
	if len(rows) > limit {
		vm.Raw.Rows = rows[:limit]
		vm.Raw.Truncated = true
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		labels, values := split(report.PriceByCategory)
		vm.PriceSVG, err = renderer.Bars(chartWidth, chartHeight, values, labels, svg.BarOpts{
			Title:        "Average Price by Category",
			Description:  "Mean discounted selling price per category",
			SeriesLabel:  "Average price",
			Color:        "#2563eb",
			RotateLabels: true,
		})
		return wrap("price chart", err)
	})
	g.Go(func() (err error) {
		labels, values := split(report.DiscountByCategory)
		vm.DiscountSVG, err = renderer.Bars(chartWidth, chartHeight, values, labels, svg.BarOpts{
			Title:        "Average Discount by Category",
			Description:  "Mean discount percent per category",
			SeriesLabel:  "Average discount",
			Color:        "#f97316",
			RotateLabels: true,
		})
		return wrap("discount chart", err)
	})
	g.Go(func() (err error) {
		points := make([]svg.Point, 0, len(report.Scatter.Points))
		for _, p := range report.Scatter.Points {
			points = append(points, svg.Point{X: p.DiscountPercent, Y: p.Price, Series: p.Category})
		}
		vm.ScatterSVG, err = renderer.Scatter(chartWidth, chartHeight+40, points, svg.ScatterOpts{
			Title:       "Price vs Discount",
			Description: "Discounted selling price against discount percent",
			XLabel:      "Discount %",
			YLabel:      "Discounted selling price",
			Series:      report.Scatter.Categories,
			EmptyLabel:  "No categories selected",
		})
		return wrap("scatter chart", err)
	})
	g.Go(func() (err error) {
		labels := make([]string, 0, len(report.CategoryCounts))
		values := make([]float64, 0, len(report.CategoryCounts))
		for _, c := range report.CategoryCounts {
			labels = append(labels, c.Category)
			values = append(values, float64(c.Products))
		}
		vm.DistributionSVG, err = renderer.Bars(chartWidth, chartHeight, values, labels, svg.BarOpts{
			Title:        "Product Distribution by Category",
			Description:  "Number of products per category",
			SeriesLabel:  "Products",
			Color:        "#9333ea",
			RotateLabels: true,
		})
		return wrap("distribution chart", err)
	})
	g.Go(func() (err error) {
		labels, values := split(report.StockStatus.Series())
		vm.AvailabilitySVG, err = renderer.Bars(chartWidth/2, chartHeight, values, labels, svg.BarOpts{
			Title:       "Stock Availability",
			Description: "Products in stock and out of stock",
			SeriesLabel: "Products",
			Colors:      []string{"#16a34a", "#dc2626"},
			ShowValues:  true,
		})
		return wrap("availability chart", err)
	})
	if err := g.Wait(); err != nil {
		return DashboardViewModel{}, err
	}
	return vm, nil
}

func split(values []analytics.CategoryValue) ([]string, []float64) {
	labels := make([]string, 0, len(values))
	series := make([]float64, 0, len(values))
	for _, v := range values {
		labels = append(labels, v.Category)
		series = append(series, v.Value)
	}
	return labels, series
}

func insight(report analytics.ReportOutput, key string) *analytics.Insight {
	in, ok := report.Insight(key)
	if !ok {
		return nil
	}
	return &in
}

func singleOptions(values []string, selected string) []Option {
	opts := make([]Option, 0, len(values))
	for _, v := range values {
		opts = append(opts, Option{Value: v, Selected: v == selected})
	}
	return opts
}

func multiOptions(values, selected []string) []Option {
	set := make(map[string]bool, len(selected))
	for _, v := range selected {
		set[v] = true
	}
	opts := make([]Option, 0, len(values))
	for _, v := range values {
		opts = append(opts, Option{Value: v, Selected: set[v]})
	}
	return opts
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ui: render %s: %w", what, err)
}
