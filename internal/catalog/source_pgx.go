package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by PgxSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxSource reads the product table through pgx.
type PgxSource struct {
	db    Querier
	table string
}

// NewPgxSource wires a pgx pool to the given table.
func NewPgxSource(db Querier, table string) *PgxSource {
	if table == "" {
		table = DefaultTable
	}
	return &PgxSource{db: db, table: table}
}

// TableName returns the configured table.
func (s *PgxSource) TableName() string {
	return s.table
}

// Fetch runs SELECT * against the table.
func (s *PgxSource) Fetch(ctx context.Context) (RawTable, error) {
	if s == nil || s.db == nil {
		return RawTable{}, connectionFailure(DefaultTable, errors.New("pool not configured"))
	}
	rows, err := s.db.Query(ctx, selectAllQuery(s.table))
	if err != nil {
		return RawTable{}, classifyPgxError(ctx, s.table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	raw := RawTable{Columns: make([]string, len(fields))}
	for i, field := range fields {
		raw.Columns[i] = field.Name
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return RawTable{}, classifyPgxError(ctx, s.table, err)
		}
		raw.Rows = append(raw.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return RawTable{}, classifyPgxError(ctx, s.table, err)
	}
	return raw, nil
}

// classifyPgxError separates caller interruptions, server-side query
// rejections and connectivity problems.
func classifyPgxError(ctx context.Context, table string, err error) error {
	if ctxErr := interrupted(ctx, table, err); ctxErr != nil {
		return ctxErr
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return queryFailure(table, err)
	}
	return connectionFailure(table, err)
}
