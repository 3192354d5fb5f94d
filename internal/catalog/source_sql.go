package catalog

import (
	"context"
	"database/sql"
	"errors"
)

// SQLSource reads the product table through database/sql, used with the
// sqlite and lib/pq drivers.
type SQLSource struct {
	db    *sql.DB
	table string
}

// NewSQLSource wires a database/sql handle to the given table.
func NewSQLSource(db *sql.DB, table string) *SQLSource {
	if table == "" {
		table = DefaultTable
	}
	return &SQLSource{db: db, table: table}
}

// TableName returns the configured table.
func (s *SQLSource) TableName() string {
	return s.table
}

// Fetch runs SELECT * against the table.
func (s *SQLSource) Fetch(ctx context.Context) (RawTable, error) {
	if s == nil || s.db == nil {
		return RawTable{}, connectionFailure(DefaultTable, errors.New("database not configured"))
	}
	if err := s.db.PingContext(ctx); err != nil {
		return RawTable{}, s.fail(ctx, err, connectionFailure)
	}
	rows, err := s.db.QueryContext(ctx, selectAllQuery(s.table))
	if err != nil {
		return RawTable{}, s.fail(ctx, err, queryFailure)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return RawTable{}, s.fail(ctx, err, queryFailure)
	}
	raw := RawTable{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return RawTable{}, s.fail(ctx, err, queryFailure)
		}
		for i, v := range values {
			// drivers may reuse byte buffers between rows
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		raw.Rows = append(raw.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return RawTable{}, s.fail(ctx, err, queryFailure)
	}
	return raw, nil
}

func (s *SQLSource) fail(ctx context.Context, err error, classify func(string, error) error) error {
	if ctxErr := interrupted(ctx, s.table, err); ctxErr != nil {
		return ctxErr
	}
	return classify(s.table, err)
}
