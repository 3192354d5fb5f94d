package analytics

import (
	"math"

	"github.com/zepto-insights/dashboard/internal/catalog"
)

// KPIs contains the headline metrics shown above the charts.
type KPIs struct {
	TotalProducts int `json:"total_products"`
	// AvgDiscountPercent is nil for an empty table.
	AvgDiscountPercent *float64 `json:"avg_discount_percent,omitempty"`
}

// ComputeKPIs counts rows and averages discount_percent, rounded to two decimals.
func ComputeKPIs(table catalog.Table) KPIs {
	kpis := KPIs{TotalProducts: table.Len()}
	if table.Len() == 0 {
		return kpis
	}
	sum := 0.0
	for _, rec := range table.Records {
		sum += rec.DiscountPercent
	}
	avg := round(sum/float64(table.Len()), 2)
	kpis.AvgDiscountPercent = &avg
	return kpis
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
