// Package embedded opens the file-backed SQL databases askdb can query.
package embedded

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite = "sqlite3"
	DriverDuckDB = "duckdb"
)

const defaultBusyTimeout = "5000"

type Config struct {
	Driver string
	Path   string
	// ReadOnly makes the connection refuse writes at the database level.
	ReadOnly bool
}

// Open opens and pings a single-connection handle. Callers own the returned
// *sql.DB and must close it.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// DSN builds the driver-specific data source name for a database file.
func DSN(cfg Config) (string, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return "", fmt.Errorf("database path is required")
	}
	switch cfg.Driver {
	case DriverSQLite:
		params := url.Values{}
		params.Set("_busy_timeout", defaultBusyTimeout)
		if cfg.ReadOnly {
			params.Set("_query_only", "1")
		}
		return path + "?" + params.Encode(), nil
	case DriverDuckDB:
		if cfg.ReadOnly {
			return path + "?access_mode=READ_ONLY", nil
		}
		return path, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// FloatColumnType is the column type used for decimal values. DuckDB's FLOAT
// is single precision, so it gets DOUBLE instead.
func FloatColumnType(driver string) string {
	if driver == DriverDuckDB {
		return "DOUBLE"
	}
	return "FLOAT"
}

func QuoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
