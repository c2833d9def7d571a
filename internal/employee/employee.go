// Package employee owns the single-table employee store: schema creation,
// one-time seeding and listing.
package employee

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/askdb/askdb/internal/embedded"
)

const DefaultTable = "Naresh_it_employee1"

type Record struct {
	Name   string  `json:"name"`
	Role   string  `json:"role"`
	Salary float64 `json:"salary"`
}

// SeedRecords are inserted, in order, the first time the table is found empty.
var SeedRecords = []Record{
	{Name: "Omkar Nallagoni", Role: "Data Science", Salary: 75000},
	{Name: "Naresh", Role: "Data Science", Salary: 90000},
	{Name: "Phani", Role: "Data Science", Salary: 88000},
	{Name: "Naga babu", Role: "Data Engineer", Salary: 50000},
	{Name: "Ajay", Role: "Data Engineer", Salary: 35000},
	{Name: "Pawan", Role: "Data Engineer", Salary: 60000},
}

type Store struct {
	db     *sql.DB
	driver string
	table  string
}

func NewStore(db *sql.DB, driver, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{db: db, driver: driver, table: table}
}

func (s *Store) Table() string {
	return s.table
}

// HealthCheck reports whether the employee table can be read.
func (s *Store) HealthCheck(ctx context.Context) error {
	if _, err := s.Count(ctx); err != nil {
		return fmt.Errorf("check employee store: %w", err)
	}
	return nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	employee_name VARCHAR(30),
	employee_role VARCHAR(30),
	employee_salary %s
)`, embedded.QuoteIdent(s.table), embedded.FloatColumnType(s.driver))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+embedded.QuoteIdent(s.table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return count, nil
}

// Seed inserts SeedRecords when the table is empty and reports how many rows
// were written. A populated table is left untouched. The count-then-insert is
// not guarded against concurrent seeders.
func (s *Store) Seed(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+embedded.QuoteIdent(s.table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	insert := `INSERT INTO ` + embedded.QuoteIdent(s.table) + ` (employee_name, employee_role, employee_salary) VALUES (?, ?, ?)`
	for _, record := range SeedRecords {
		if _, err := tx.ExecContext(ctx, insert, record.Name, record.Role, record.Salary); err != nil {
			return 0, fmt.Errorf("insert employee %q: %w", record.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(SeedRecords), nil
}

func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT employee_name, employee_role, employee_salary
FROM `+embedded.QuoteIdent(s.table))
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			name   sql.NullString
			role   sql.NullString
			salary sql.NullFloat64
		)
		if err := rows.Scan(&name, &role, &salary); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		records = append(records, Record{Name: name.String, Role: role.String, Salary: salary.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}

// Initialize creates the table and seeds it when empty. It is what the seed
// command and the server's auto-seed both run.
func (s *Store) Initialize(ctx context.Context) (int, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	return s.Seed(ctx)
}

// FileLister reads the table through a connection opened for each call, the
// same way the query engine does, so the file is never held open between
// requests.
type FileLister struct {
	Database embedded.Config
	Table    string
}

func (l FileLister) List(ctx context.Context) ([]Record, error) {
	db, err := embedded.Open(ctx, l.Database)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	return NewStore(db, l.Database.Driver, l.Table).List(ctx)
}

func (l FileLister) HealthCheck(ctx context.Context) error {
	db, err := embedded.Open(ctx, l.Database)
	if err != nil {
		return fmt.Errorf("open employee store: %w", err)
	}
	defer func() { _ = db.Close() }()
	return NewStore(db, l.Database.Driver, l.Table).HealthCheck(ctx)
}
