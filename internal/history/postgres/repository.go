package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/askdb/askdb/internal/history"
)

const entryColumns = `history_id, question, sql_text, status, error_message, row_count, explain_ok, duration_ms, created_at, archived_at`

type Repository struct {
	db *sql.DB
}

var _ history.Repository = (*Repository)(nil)

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (r *Repository) Record(ctx context.Context, entry history.Entry) (history.Entry, error) {
	if !entry.Status.Valid() {
		return history.Entry{}, fmt.Errorf("invalid history status %q", entry.Status)
	}

	query := `
INSERT INTO query_history (question, sql_text, status, error_message, row_count, explain_ok, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING history_id, created_at`
	if err := r.db.QueryRowContext(ctx, query,
		entry.Question,
		entry.SQL,
		string(entry.Status),
		entry.Error,
		entry.RowCount,
		entry.ExplainOK,
		entry.DurationMs,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return history.Entry{}, fmt.Errorf("record history entry: %w", err)
	}
	return entry, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (history.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+entryColumns+`
FROM query_history
WHERE history_id = $1`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.Entry{}, history.ErrNotFound
		}
		return history.Entry{}, fmt.Errorf("get history entry: %w", err)
	}
	return entry, nil
}

// ListRecent returns the newest entries first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+entryColumns+`
FROM query_history
ORDER BY history_id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return collectEntries(rows)
}

// ListUnarchived returns the oldest entries without an archive mark,
// ascending by id.
func (r *Repository) ListUnarchived(ctx context.Context, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+entryColumns+`
FROM query_history
WHERE archived_at IS NULL
ORDER BY history_id ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unarchived history: %w", err)
	}
	return collectEntries(rows)
}

// MarkArchived stamps exactly the given entries. Rows that committed after
// the batch was listed keep a NULL archived_at even when their id falls
// inside the batch range.
func (r *Repository) MarkArchived(ctx context.Context, ids []int64, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE query_history
SET archived_at = $1
WHERE history_id = ANY($2) AND archived_at IS NULL`, at.UTC(), ids)
	if err != nil {
		return 0, fmt.Errorf("mark history archived: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read archived row count: %w", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (history.Entry, error) {
	var (
		entry      history.Entry
		status     string
		archivedAt sql.NullTime
	)
	if err := row.Scan(
		&entry.ID,
		&entry.Question,
		&entry.SQL,
		&status,
		&entry.Error,
		&entry.RowCount,
		&entry.ExplainOK,
		&entry.DurationMs,
		&entry.CreatedAt,
		&archivedAt,
	); err != nil {
		return history.Entry{}, err
	}
	entry.Status = history.Status(status)
	if archivedAt.Valid {
		value := archivedAt.Time
		entry.ArchivedAt = &value
	}
	return entry, nil
}

func collectEntries(rows *sql.Rows) ([]history.Entry, error) {
	defer func() { _ = rows.Close() }()

	entries := make([]history.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}
