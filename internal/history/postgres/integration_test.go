//go:build integration

package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/migrations"
)

func TestRepositoryRoundTripAgainstPostgres(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("ASKDB_TEST_HISTORY_DSN"))
	if dsn == "" {
		t.Skip("ASKDB_TEST_HISTORY_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	db, err := Open(ctx, DBConfig{DSN: dsn})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := migrations.NewRunner().Up(ctx, db, 0); err != nil {
		t.Fatalf("migrations Up() error = %v", err)
	}

	repo := NewRepository(db)
	recorded, err := repo.Record(ctx, history.Entry{
		Question: "Average salary of Data Engineers?",
		SQL:      "SELECT AVG(employee_salary) FROM Naresh_it_employee1 WHERE employee_role = 'Data Engineer'",
		Status:   history.StatusOK,
		RowCount: 1,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := repo.Get(ctx, recorded.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Question != recorded.Question || got.Status != history.StatusOK {
		t.Fatalf("Get() = %+v", got)
	}

	if _, err := repo.MarkArchived(ctx, []int64{recorded.ID}, time.Now()); err != nil {
		t.Fatalf("MarkArchived() error = %v", err)
	}
	pending, err := repo.ListUnarchived(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnarchived() error = %v", err)
	}
	for _, entry := range pending {
		if entry.ID == recorded.ID {
			t.Fatalf("entry %d should be archived", entry.ID)
		}
	}
}
