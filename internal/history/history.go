package history

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("history: not found")

type Status string

const (
	StatusOK              Status = "ok"
	StatusTranslateFailed Status = "translate_failed"
	StatusExecuteFailed   Status = "execute_failed"
	StatusRejected        Status = "rejected"
)

// Entry is one recorded run of the ask pipeline.
type Entry struct {
	ID         int64      `json:"id"`
	Question   string     `json:"question"`
	SQL        string     `json:"sql"`
	Status     Status     `json:"status"`
	Error      string     `json:"error,omitempty"`
	RowCount   int        `json:"row_count"`
	ExplainOK  bool       `json:"explain_ok"`
	DurationMs int64      `json:"duration_ms"`
	CreatedAt  time.Time  `json:"created_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

type Recorder interface {
	Record(ctx context.Context, entry Entry) (Entry, error)
}

type Repository interface {
	Recorder
	Get(ctx context.Context, id int64) (Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	ListUnarchived(ctx context.Context, limit int) ([]Entry, error)
	MarkArchived(ctx context.Context, ids []int64, at time.Time) (int64, error)
	HealthCheck(ctx context.Context) error
}

func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusTranslateFailed, StatusExecuteFailed, StatusRejected:
		return true
	default:
		return false
	}
}
