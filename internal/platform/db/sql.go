package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// database/sql drivers selectable through DB_DRIVER.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names accepted by OpenSQL.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open returns a database/sql handle for driver without connecting.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("platform/db: unsupported driver %q", driver)
	}
	handle, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: open %s: %w", driver, err)
	}
	handle.SetConnMaxIdleTime(5 * time.Minute)
	if driver == DriverSQLite {
		// a single connection keeps in-memory databases alive
		handle.SetMaxOpenConns(1)
	}
	return handle, nil
}

// OpenSQL is Open followed by a ping.
func OpenSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	handle, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("platform/db: ping %s: %w", driver, err)
	}
	return handle, nil
}
