package catalog

import (
	"fmt"
	"strconv"
)

// Rows renders the table as strings in column order for the raw data viewer.
func (t Table) Rows() [][]string {
	out := make([][]string, 0, len(t.Records))
	for _, rec := range t.Records {
		row := make([]string, len(t.Columns))
		for i, column := range t.Columns {
			row[i] = rec.cell(column)
		}
		out = append(out, row)
	}
	return out
}

func (p ProductRecord) cell(column string) string {
	switch column {
	case ColumnCategory:
		return p.Category
	case ColumnDiscountedPrice:
		return strconv.FormatFloat(p.DiscountedSellingPrice, 'f', -1, 64)
	case ColumnDiscountPercent:
		return strconv.FormatFloat(p.DiscountPercent, 'f', -1, 64)
	case ColumnAvailableQuantity:
		return strconv.FormatInt(p.AvailableQuantity, 10)
	case ColumnWeight:
		return strconv.FormatFloat(p.WeightG, 'f', -1, 64)
	}
	value, ok := p.Extra[column]
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
