package analytics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zepto-insights/dashboard/internal/catalog"
)

// Metric names a numeric product column that can be averaged per category.
type Metric string

// Supported metrics.
const (
	MetricPrice    Metric = catalog.ColumnDiscountedPrice
	MetricDiscount Metric = catalog.ColumnDiscountPercent
	MetricWeight   Metric = catalog.ColumnWeight
)

// ErrUnknownMetric is returned for metrics outside the supported set.
var ErrUnknownMetric = errors.New("analytics: unknown metric")

// DefaultScatterLimit bounds the default scatter selection.
const DefaultScatterLimit = 5

// Stock status labels.
const (
	LabelInStock    = "In Stock"
	LabelOutOfStock = "Out of Stock"
)

func (m Metric) value(rec catalog.ProductRecord) (float64, error) {
	switch m {
	case MetricPrice:
		return rec.DiscountedSellingPrice, nil
	case MetricDiscount:
		return rec.DiscountPercent, nil
	case MetricWeight:
		return rec.WeightG, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, string(m))
	}
}

// CategoryValue pairs a category with a numeric value.
type CategoryValue struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// CategoryCount pairs a category with its product count.
type CategoryCount struct {
	Category string `json:"category"`
	Products int    `json:"products"`
}

// CategoryAggregate summarises one category.
type CategoryAggregate struct {
	Category     string  `json:"category"`
	AvgPrice     float64 `json:"avg_price"`
	AvgDiscount  float64 `json:"avg_discount"`
	Products     int     `json:"products"`
	InStockRatio float64 `json:"in_stock_ratio"`
}

// StockStatus counts in-stock and out-of-stock rows across the whole table.
type StockStatus struct {
	InStock    int `json:"in_stock"`
	OutOfStock int `json:"out_of_stock"`
}

// Total returns InStock + OutOfStock.
func (s StockStatus) Total() int {
	return s.InStock + s.OutOfStock
}

// Series returns the counts in display order.
func (s StockStatus) Series() []CategoryValue {
	return []CategoryValue{
		{Category: LabelInStock, Value: float64(s.InStock)},
		{Category: LabelOutOfStock, Value: float64(s.OutOfStock)},
	}
}

// Categories returns the distinct categories sorted alphabetically.
func Categories(table catalog.Table) []string {
	out := sourceOrderCategories(table)
	sort.Strings(out)
	return out
}

// sourceOrderCategories returns distinct categories by first appearance.
func sourceOrderCategories(table catalog.Table) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, rec := range table.Records {
		if _, ok := seen[rec.Category]; ok {
			continue
		}
		seen[rec.Category] = struct{}{}
		out = append(out, rec.Category)
	}
	return out
}

type accumulator struct {
	sum   float64
	count int
}

// CategoryAverages computes the arithmetic mean of metric per category,
// ordered alphabetically by category.
func CategoryAverages(table catalog.Table, metric Metric) ([]CategoryValue, error) {
	if _, err := metric.value(catalog.ProductRecord{}); err != nil {
		return nil, err
	}
	groups := make(map[string]*accumulator)
	for _, rec := range table.Records {
		v, _ := metric.value(rec)
		acc := groups[rec.Category]
		if acc == nil {
			acc = &accumulator{}
			groups[rec.Category] = acc
		}
		acc.sum += v
		acc.count++
	}
	out := make([]CategoryValue, 0, len(groups))
	for _, category := range Categories(table) {
		acc := groups[category]
		out = append(out, CategoryValue{Category: category, Value: acc.sum / float64(acc.count)})
	}
	return out, nil
}

// StockInsight returns the percentage (0-100) of rows in category that are in stock.
func StockInsight(table catalog.Table, category string) (float64, error) {
	total, inStock := 0, 0
	for _, rec := range table.Records {
		if rec.Category != category {
			continue
		}
		total++
		if rec.InStock() {
			inStock++
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("analytics: stock insight for %q: %w", category, catalog.ErrEmptySelection)
	}
	return float64(inStock) / float64(total) * 100, nil
}

// StockStatusCounts classifies every row as in stock or out of stock.
func StockStatusCounts(table catalog.Table) StockStatus {
	var status StockStatus
	for _, rec := range table.Records {
		if rec.InStock() {
			status.InStock++
		} else {
			status.OutOfStock++
		}
	}
	return status
}

// CategoryCounts counts rows per category, ordered alphabetically.
func CategoryCounts(table catalog.Table) []CategoryCount {
	counts := make(map[string]int)
	for _, rec := range table.Records {
		counts[rec.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for _, category := range Categories(table) {
		out = append(out, CategoryCount{Category: category, Products: counts[category]})
	}
	return out
}

// CategoryAggregates builds the full per-category summary.
func CategoryAggregates(table catalog.Table) []CategoryAggregate {
	type totals struct {
		price, discount float64
		count, inStock  int
	}
	groups := make(map[string]*totals)
	for _, rec := range table.Records {
		t := groups[rec.Category]
		if t == nil {
			t = &totals{}
			groups[rec.Category] = t
		}
		t.price += rec.DiscountedSellingPrice
		t.discount += rec.DiscountPercent
		t.count++
		if rec.InStock() {
			t.inStock++
		}
	}
	out := make([]CategoryAggregate, 0, len(groups))
	for _, category := range Categories(table) {
		t := groups[category]
		n := float64(t.count)
		out = append(out, CategoryAggregate{
			Category:     category,
			AvgPrice:     t.price / n,
			AvgDiscount:  t.discount / n,
			Products:     t.count,
			InStockRatio: float64(t.inStock) / n,
		})
	}
	return out
}

// DiscountRecommendation returns the mean discount of a single category.
func DiscountRecommendation(table catalog.Table, category string) (CategoryValue, error) {
	sum, count := 0.0, 0
	for _, rec := range table.Records {
		if rec.Category == category {
			sum += rec.DiscountPercent
			count++
		}
	}
	if count == 0 {
		return CategoryValue{}, fmt.Errorf("analytics: discount recommendation for %q: %w", category, catalog.ErrEmptySelection)
	}
	return CategoryValue{Category: category, Value: sum / float64(count)}, nil
}

// SelectScatterSubset keeps the rows whose category is in categories.
func SelectScatterSubset(table catalog.Table, categories []string) catalog.Table {
	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}
	subset := catalog.Table{Name: table.Name, Columns: table.Columns, Records: make([]catalog.ProductRecord, 0)}
	for _, rec := range table.Records {
		if _, ok := wanted[rec.Category]; ok {
			subset.Records = append(subset.Records, rec)
		}
	}
	return subset
}

// DefaultScatterCategories returns the first DefaultScatterLimit distinct
// categories in source order.
func DefaultScatterCategories(table catalog.Table) []string {
	categories := sourceOrderCategories(table)
	if len(categories) > DefaultScatterLimit {
		categories = categories[:DefaultScatterLimit]
	}
	return categories
}
