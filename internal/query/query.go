package query

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Request struct {
	SQL string
}

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

// ErrorColumn and ErrorLabel describe the single-row shape used when an
// execution failure is rendered through a row/column table.
const (
	ErrorColumn = "Error"
	ErrorLabel  = "SQL Error"
)

// ExecutionError is returned by engines when a statement fails to run or is
// refused by the statement policy.
type ExecutionError struct {
	Message  string
	Rejected bool
	Err      error
}

func (e *ExecutionError) Error() string {
	return e.Message
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Row returns the failure as ("SQL Error", message) under the single
// "Error" column.
func (e *ExecutionError) Row() ([]any, []string) {
	return []any{ErrorLabel, e.Message}, []string{ErrorColumn}
}

// Policy decides which statements may reach the database.
type Policy struct {
	ReadOnly bool
}

var (
	ReadOnlyPolicy     = Policy{ReadOnly: true}
	UnrestrictedPolicy = Policy{}
)

// Check returns an ExecutionError when the policy refuses the statement.
// Read-only mode admits statements beginning with SELECT or WITH. The
// keyword check only produces the refusal message; engines must also open
// their connections read-only, since a WITH clause can lead into a write.
func (p Policy) Check(sqlText string) error {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	if normalized == "" {
		return &ExecutionError{Message: "sql is required", Rejected: true}
	}
	if !p.ReadOnly {
		return nil
	}
	verb := leadingWord(normalized)
	if verb == "select" || verb == "with" {
		return nil
	}
	return &ExecutionError{
		Message:  fmt.Sprintf("statement %q is not allowed: only read-only SELECT/WITH queries may run", strings.ToUpper(verb)),
		Rejected: true,
	}
}

func leadingWord(value string) string {
	end := strings.IndexFunc(value, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	if end < 0 {
		return value
	}
	return value[:end]
}
