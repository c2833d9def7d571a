// Package sqldb executes statements against an embedded database file,
// opening a fresh connection for every call.
package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/embedded"
	"github.com/askdb/askdb/internal/query"
)

type Engine struct {
	Database embedded.Config
	Policy   query.Policy
}

func NewEngine(database embedded.Config, policy query.Policy) *Engine {
	return &Engine{Database: database, Policy: policy}
}

// Identifier names the database file queries run against.
func (e *Engine) Identifier() string {
	return e.Database.Path
}

// Execute runs the statement verbatim. Every failure, including connection
// problems, comes back as *query.ExecutionError.
func (e *Engine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	sqlText := strings.TrimSpace(request.SQL)
	if err := e.Policy.Check(sqlText); err != nil {
		return query.Result{}, err
	}

	database := e.Database
	database.ReadOnly = e.Policy.ReadOnly

	start := time.Now()
	db, err := embedded.Open(ctx, database)
	if err != nil {
		return query.Result{}, &query.ExecutionError{Message: err.Error(), Err: err}
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return query.Result{}, e.executionError("execute query", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.Result{}, e.executionError("query columns", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return query.Result{}, e.executionError("scan row", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return query.Result{}, e.executionError("iterate rows", err)
	}

	return query.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

// executionError wraps a driver failure. Writes refused by a read-only
// connection surface only while stepping rows, so every step checks.
func (e *Engine) executionError(step string, err error) *query.ExecutionError {
	return &query.ExecutionError{
		Message:  err.Error(),
		Rejected: e.Policy.ReadOnly && isReadOnlyViolation(err),
		Err:      fmt.Errorf("%s: %w", step, err),
	}
}

// isReadOnlyViolation matches the write refusals of a read-only sqlite3
// (query_only) or duckdb (access_mode=READ_ONLY) connection.
func isReadOnlyViolation(err error) bool {
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "readonly") || strings.Contains(message, "read-only")
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		case float32:
			normalized[i] = float64(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
