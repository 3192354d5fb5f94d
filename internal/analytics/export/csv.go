package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/zepto-insights/dashboard/internal/analytics"
	"github.com/zepto-insights/dashboard/internal/catalog"
)

// WriteKPICSV serialises the headline metrics to a CSV representation.
func WriteKPICSV(w io.Writer, report analytics.ReportOutput) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	avg := ""
	if report.KPIs.AvgDiscountPercent != nil {
		avg = formatFloat(*report.KPIs.AvgDiscountPercent)
	}
	records := [][]string{
		{"Table", report.Table},
		{"Total Products", strconv.Itoa(report.KPIs.TotalProducts)},
		{"Average Discount %", avg},
		{"In Stock", strconv.Itoa(report.StockStatus.InStock)},
		{"Out of Stock", strconv.Itoa(report.StockStatus.OutOfStock)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCategorySummaryCSV emits one row per category aggregate.
func WriteCategorySummaryCSV(w io.Writer, aggregates []analytics.CategoryAggregate) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Category", "Products", "Avg Price", "Avg Discount %", "In Stock Ratio"}); err != nil {
		return err
	}
	for _, agg := range aggregates {
		if err := writer.Write([]string{
			agg.Category,
			strconv.Itoa(agg.Products),
			formatFloat(agg.AvgPrice),
			formatFloat(agg.AvgDiscount),
			formatFloat(agg.InStockRatio),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteStockStatusCSV prints the stock availability counts.
func WriteStockStatusCSV(w io.Writer, status analytics.StockStatus) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Status", "Products"}); err != nil {
		return err
	}
	for _, entry := range status.Series() {
		if err := writer.Write([]string{entry.Category, strconv.Itoa(int(entry.Value))}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRawCSV dumps the normalized table in column order.
func WriteRawCSV(w io.Writer, table catalog.Table) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(table.Columns); err != nil {
		return err
	}
	for _, row := range table.Rows() {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteReportCSV concatenates the KPI, category and stock sections separated
// by blank lines.
func WriteReportCSV(w io.Writer, report analytics.ReportOutput) error {
	if err := WriteKPICSV(w, report); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	if err := WriteCategorySummaryCSV(w, report.Aggregates); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return WriteStockStatusCSV(w, report.StockStatus)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
