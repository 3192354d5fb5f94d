package analytics

import (
	"fmt"
	"time"

	"github.com/zepto-insights/dashboard/internal/catalog"
)

// Selections carries the dashboard control values for one render.
type Selections struct {
	// Category drives the price, discount and stock insights. Empty selects
	// the first category alphabetically.
	Category string
	// ScatterCategories bounds the price-vs-discount point cloud.
	ScatterCategories []string
	// ScatterExplicit marks ScatterCategories as user supplied, so an empty
	// list means "none" instead of the default selection.
	ScatterExplicit bool
	// DiscountCategory drives the discount recommendation panel.
	DiscountCategory string
}

// ScatterPoint is one product in the price-vs-discount chart.
type ScatterPoint struct {
	Category        string  `json:"category"`
	DiscountPercent float64 `json:"discount_percent"`
	Price           float64 `json:"discounted_selling_price"`
}

// ScatterView is the filtered point cloud and the categories that produced it.
type ScatterView struct {
	Categories []string       `json:"categories"`
	Points     []ScatterPoint `json:"points"`
}

// ReportOutput is everything the dashboard displays for one render.
type ReportOutput struct {
	RenderID               string              `json:"render_id,omitempty"`
	GeneratedAt            time.Time           `json:"generated_at"`
	Table                  string              `json:"table"`
	KPIs                   KPIs                `json:"kpis"`
	Categories             []string            `json:"categories"`
	SelectedCategory       string              `json:"selected_category"`
	PriceByCategory        []CategoryValue     `json:"price_by_category"`
	DiscountByCategory     []CategoryValue     `json:"discount_by_category"`
	CategoryCounts         []CategoryCount     `json:"category_counts"`
	StockStatus            StockStatus         `json:"stock_status"`
	SelectedStockPct       *float64            `json:"selected_stock_pct,omitempty"`
	Scatter                ScatterView         `json:"scatter"`
	DiscountCategory       string              `json:"discount_category"`
	DiscountRecommendation *CategoryValue      `json:"discount_recommendation,omitempty"`
	Aggregates             []CategoryAggregate `json:"aggregates"`
	Insights               []Insight           `json:"insights"`
	Warnings               []string            `json:"warnings,omitempty"`
}

// Insight returns the insight with the given key.
func (r ReportOutput) Insight(key string) (Insight, bool) {
	for _, in := range r.Insights {
		if in.Key == key {
			return in, true
		}
	}
	return Insight{}, false
}

// BuildReport computes every aggregate and insight for a table and a set of
// selections. Selections that match nothing degrade to empty charts and
// omitted insights, recorded in Warnings. An empty table is an error.
func BuildReport(table catalog.Table, sel Selections) (ReportOutput, error) {
	if table.Len() == 0 {
		return ReportOutput{}, fmt.Errorf("analytics: build report: table %q has no rows: %w", table.Name, catalog.ErrEmptySelection)
	}

	out := ReportOutput{
		Table:          table.Name,
		KPIs:           ComputeKPIs(table),
		Categories:     Categories(table),
		CategoryCounts: CategoryCounts(table),
		StockStatus:    StockStatusCounts(table),
		Aggregates:     CategoryAggregates(table),
	}

	var err error
	if out.PriceByCategory, err = CategoryAverages(table, MetricPrice); err != nil {
		return ReportOutput{}, err
	}
	if out.DiscountByCategory, err = CategoryAverages(table, MetricDiscount); err != nil {
		return ReportOutput{}, err
	}

	out.SelectedCategory = sel.Category
	if out.SelectedCategory == "" {
		out.SelectedCategory = out.Categories[0]
	}
	if price, ok := lookup(out.PriceByCategory, out.SelectedCategory); ok {
		out.Insights = append(out.Insights, PriceInsight(out.SelectedCategory, price))
		discount, _ := lookup(out.DiscountByCategory, out.SelectedCategory)
		out.Insights = append(out.Insights, DiscountInsight(out.SelectedCategory, discount))
		if pct, err := StockInsight(table, out.SelectedCategory); err == nil {
			out.SelectedStockPct = &pct
			out.Insights = append(out.Insights, StockInsightText(out.SelectedCategory, pct))
		}
	} else {
		out.Warnings = append(out.Warnings, fmt.Sprintf("category %q: %v", out.SelectedCategory, catalog.ErrEmptySelection))
	}

	out.Scatter = buildScatter(table, sel)
	if len(out.Scatter.Categories) == 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("scatter categories: %v", catalog.ErrEmptySelection))
	}

	out.DiscountCategory = sel.DiscountCategory
	if out.DiscountCategory == "" {
		out.DiscountCategory = out.Categories[0]
	}
	if rec, err := DiscountRecommendation(table, out.DiscountCategory); err == nil {
		out.DiscountRecommendation = &rec
		out.Insights = append(out.Insights, RecommendationInsight(rec))
	} else {
		out.Warnings = append(out.Warnings, fmt.Sprintf("discount category %q: %v", out.DiscountCategory, catalog.ErrEmptySelection))
	}

	out.Insights = append(out.Insights, staticInsights()...)
	return out, nil
}

func buildScatter(table catalog.Table, sel Selections) ScatterView {
	requested := sel.ScatterCategories
	if !sel.ScatterExplicit && len(requested) == 0 {
		requested = DefaultScatterCategories(table)
	}
	wanted := make(map[string]bool, len(requested))
	for _, c := range requested {
		wanted[c] = true
	}
	view := ScatterView{Categories: make([]string, 0, len(requested)), Points: make([]ScatterPoint, 0)}
	for _, c := range sourceOrderCategories(table) {
		if wanted[c] {
			view.Categories = append(view.Categories, c)
		}
	}
	for _, rec := range SelectScatterSubset(table, view.Categories).Records {
		view.Points = append(view.Points, ScatterPoint{
			Category:        rec.Category,
			DiscountPercent: rec.DiscountPercent,
			Price:           rec.DiscountedSellingPrice,
		})
	}
	return view
}

func lookup(values []CategoryValue, category string) (float64, bool) {
	for _, v := range values {
		if v.Category == category {
			return v.Value, true
		}
	}
	return 0, false
}
