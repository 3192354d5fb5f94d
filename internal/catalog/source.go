package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// DefaultTable is the product table read when none is configured.
const DefaultTable = "zepto"

// Source issues the single read query against the product table.
type Source interface {
	Fetch(ctx context.Context) (RawTable, error)
	TableName() string
}

// Load fetches, normalizes and validates the product table. An empty table
// fails with ErrDataUnavailable.
func Load(ctx context.Context, src Source) (Table, error) {
	if src == nil {
		return Table{}, fmt.Errorf("catalog: source not configured: %w", ErrDataUnavailable)
	}
	raw, err := src.Fetch(ctx)
	if err != nil {
		return Table{}, err
	}
	table, err := BuildTable(src.TableName(), NormalizeColumns(raw))
	if err != nil {
		return Table{}, err
	}
	if table.Len() == 0 {
		return Table{}, fmt.Errorf("catalog: table %s is empty: %w", src.TableName(), ErrDataUnavailable)
	}
	return table, nil
}

func selectAllQuery(table string) string {
	return "SELECT * FROM " + quoteTable(table)
}

// quoteTable quotes a possibly schema-qualified table name.
func quoteTable(table string) string {
	if strings.TrimSpace(table) == "" {
		table = DefaultTable
	}
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}
