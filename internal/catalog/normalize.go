package catalog

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
)

// columnAliases maps lower-cased source names onto canonical names.
var columnAliases = map[string]string{
	"category":                 ColumnCategory,
	"discount_percent":         ColumnDiscountPercent,
	"discountpercent":          ColumnDiscountPercent,
	"discounted_selling_price": ColumnDiscountedPrice,
	"discountedsellingprice":   ColumnDiscountedPrice,
	"available_quantity":       ColumnAvailableQuantity,
	"availablequantity":        ColumnAvailableQuantity,
	"weight_g":                 ColumnWeight,
	"weightingms":              ColumnWeight,
	"weight_in_gms":            ColumnWeight,
}

var recordValidator = validator.New()

// CanonicalColumn resolves a source column name, reporting whether it is a known alias.
func CanonicalColumn(name string) (string, bool) {
	canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// NormalizeColumns renames known aliases to their canonical names. Unknown
// columns pass through unchanged. When two source columns resolve to the same
// canonical name the first one wins and the later one keeps its name.
func NormalizeColumns(raw RawTable) RawTable {
	columns := make([]string, len(raw.Columns))
	taken := make(map[string]bool, len(raw.Columns))
	for i, name := range raw.Columns {
		columns[i] = name
		canonical, ok := CanonicalColumn(name)
		if !ok || taken[canonical] {
			continue
		}
		taken[canonical] = true
		columns[i] = canonical
	}
	return RawTable{Columns: columns, Rows: raw.Rows}
}

// BuildTable converts a normalized RawTable into typed records. It fails with
// a MissingColumnError when a required column is absent and with
// ErrInvalidValue when a required cell cannot be converted.
func BuildTable(name string, raw RawTable) (Table, error) {
	index := make(map[string]int, len(raw.Columns))
	for i, column := range raw.Columns {
		if _, exists := index[column]; !exists {
			index[column] = i
		}
	}
	for _, column := range RequiredColumns {
		if _, ok := index[column]; !ok {
			return Table{}, fmt.Errorf("catalog: build %s: %w", name, &MissingColumnError{Column: column})
		}
	}
	weightIdx, hasWeight := index[ColumnWeight]

	canonical := make(map[int]bool, len(RequiredColumns)+1)
	for _, column := range RequiredColumns {
		canonical[index[column]] = true
	}
	if hasWeight {
		canonical[weightIdx] = true
	}

	records := make([]ProductRecord, 0, len(raw.Rows))
	for rowNum, row := range raw.Rows {
		if len(row) != len(raw.Columns) {
			return Table{}, fmt.Errorf("catalog: build %s: row %d has %d values for %d columns: %w", name, rowNum, len(row), len(raw.Columns), ErrInvalidValue)
		}
		rec, err := buildRecord(row, index, hasWeight)
		if err != nil {
			return Table{}, fmt.Errorf("catalog: build %s: row %d: %w", name, rowNum, err)
		}
		for i, value := range row {
			if canonical[i] {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = make(map[string]any, len(row)-len(canonical))
			}
			rec.Extra[raw.Columns[i]] = displayValue(value)
		}
		if err := recordValidator.Struct(rec); err != nil {
			return Table{}, fmt.Errorf("catalog: build %s: row %d: %w", name, rowNum, validationError(err))
		}
		records = append(records, rec)
	}

	columns := make([]string, len(raw.Columns))
	copy(columns, raw.Columns)
	return Table{Name: name, Columns: columns, Records: records}, nil
}

func buildRecord(row []any, index map[string]int, hasWeight bool) (ProductRecord, error) {
	var rec ProductRecord
	category, ok := toString(row[index[ColumnCategory]])
	if !ok {
		return rec, invalidValue(ColumnCategory, row[index[ColumnCategory]])
	}
	rec.Category = category

	price, ok := toFloat64(row[index[ColumnDiscountedPrice]])
	if !ok {
		return rec, invalidValue(ColumnDiscountedPrice, row[index[ColumnDiscountedPrice]])
	}
	rec.DiscountedSellingPrice = price

	discount, ok := toFloat64(row[index[ColumnDiscountPercent]])
	if !ok {
		return rec, invalidValue(ColumnDiscountPercent, row[index[ColumnDiscountPercent]])
	}
	rec.DiscountPercent = discount

	qty, ok := toFloat64(row[index[ColumnAvailableQuantity]])
	if !ok || qty != math.Trunc(qty) || qty < math.MinInt64 || qty >= math.MaxInt64 {
		return rec, invalidValue(ColumnAvailableQuantity, row[index[ColumnAvailableQuantity]])
	}
	rec.AvailableQuantity = int64(qty)

	if hasWeight {
		raw := row[index[ColumnWeight]]
		if raw != nil {
			weight, ok := toFloat64(raw)
			if !ok {
				return rec, invalidValue(ColumnWeight, raw)
			}
			rec.WeightG = weight
		}
	}
	return rec, nil
}

func invalidValue(column string, value any) error {
	return fmt.Errorf("column %q value %v: %w", column, value, ErrInvalidValue)
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("field %s failed %s=%s: %w", fe.Field(), fe.Tag(), fe.Param(), ErrInvalidValue)
	}
	return fmt.Errorf("%v: %w", err, ErrInvalidValue)
}

func toString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float32:
		return finite(float64(val))
	case float64:
		return finite(val)
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case int16:
		return float64(val), true
	case int8:
		return float64(val), true
	case int:
		return float64(val), true
	case uint64:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint:
		return float64(val), true
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return 0, false
		}
		return finite(f.Float64)
	case string:
		return parseFloat(val)
	case []byte:
		return parseFloat(string(val))
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// displayValue turns driver-specific values into JSON friendly ones.
func displayValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case pgtype.Numeric:
		if f, ok := toFloat64(val); ok {
			return f
		}
		return nil
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return val
	}
}
