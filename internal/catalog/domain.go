// Package catalog loads the retail product table and turns it into typed records.
package catalog

// Canonical column names used by the aggregation layer.
const (
	ColumnCategory          = "category"
	ColumnDiscountPercent   = "discount_percent"
	ColumnDiscountedPrice   = "discounted_selling_price"
	ColumnAvailableQuantity = "available_quantity"
	ColumnWeight            = "weight_g"
)

// RequiredColumns must exist after normalization.
var RequiredColumns = []string{
	ColumnCategory,
	ColumnDiscountPercent,
	ColumnDiscountedPrice,
	ColumnAvailableQuantity,
}

// RawTable is the untyped result of the product query.
type RawTable struct {
	Columns []string
	Rows    [][]any
}

// ProductRecord is one validated row of the product table.
type ProductRecord struct {
	Category               string         `json:"category" validate:"required"`
	DiscountedSellingPrice float64        `json:"discounted_selling_price" validate:"gte=0"`
	DiscountPercent        float64        `json:"discount_percent" validate:"gte=0,lte=100"`
	AvailableQuantity      int64          `json:"available_quantity" validate:"gte=0"`
	WeightG                float64        `json:"weight_g"`
	Extra                  map[string]any `json:"extra,omitempty"`
}

// InStock reports whether any units are available.
func (p ProductRecord) InStock() bool {
	return p.AvailableQuantity > 0
}

// Table is the render context every aggregate is computed from.
type Table struct {
	Name    string          `json:"name"`
	Columns []string        `json:"columns"`
	Records []ProductRecord `json:"records"`
}

// Len returns the number of records.
func (t Table) Len() int {
	return len(t.Records)
}
