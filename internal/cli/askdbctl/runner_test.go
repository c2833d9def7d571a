package askdbctl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRunAskCommandRendersTable(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"sql":"SELECT employee_name FROM Naresh_it_employee1 LIMIT 1",
			"columns":["employee_name"],
			"rows":[["Naresh"]],
			"execution_error":null,
			"explanation":"Returns one employee name."
		}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"ask", "Who", "earns", "the", "most?",
	}, Options{
		Stdout:  &stdout,
		Stderr:  &stderr,
		Timeout: 2 * time.Second,
	})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if gotMethod != http.MethodPost || gotPath != "/v1/ask" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if gotBody["question"] != "Who earns the most?" {
		t.Fatalf("question = %q", gotBody["question"])
	}
	out := stdout.String()
	for _, want := range []string{"Generated SQL:", "LIMIT 1", "employee_name", "Naresh", "Returns one employee name."} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunAskShowsExecutionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"sql":"SELECT nope","columns":[],"rows":[],"execution_error":{"message":"no such column: nope"},"explanation":"","explanation_error":"timeout"}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "ask", "q"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout.String(), "Execution Error: no such column: nope") {
		t.Fatalf("output = %s", stdout.String())
	}
	if !strings.Contains(stdout.String(), "Could not generate explanation: timeout") {
		t.Fatalf("output = %s", stdout.String())
	}
}

func TestRunQueryJSONFormat(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/query" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"columns":["n"],"rows":[[6]]}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "-format", "json", "query", "SELECT COUNT(*) AS n FROM Naresh_it_employee1"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotBody["sql"] != "SELECT COUNT(*) AS n FROM Naresh_it_employee1" {
		t.Fatalf("sql = %q", gotBody["sql"])
	}
	if !strings.Contains(stdout.String(), `"columns": [`) {
		t.Fatalf("expected indented JSON, got %s", stdout.String())
	}
}

func TestRunEmployeesCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/employees" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"employees":[{"name":"Phani","role":"Data Science","salary":88000,"salary_display":"₹88,000.00"}],"count":1}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "employees"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout.String(), "Phani") || !strings.Contains(stdout.String(), "₹88,000.00") {
		t.Fatalf("output = %s", stdout.String())
	}
}

func TestRunHistoryPassesLimit(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"entries":[{"id":3,"question":"top earner","status":"ok","row_count":1,"created_at":"2026-01-02T03:04:05Z"}],"limit":5}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "-limit", "5", "history"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotQuery != "limit=5" {
		t.Fatalf("query = %q", gotQuery)
	}
	if !strings.Contains(stdout.String(), "top earner") {
		t.Fatalf("output = %s", stdout.String())
	}
}

func TestRunHistoryExportCommand(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"key":"history/date=2026-01-02/history-0000000001-0000000003.parquet","entries":3}`))
	}))
	defer srv.Close()

	code := Run(context.Background(), []string{"-base-url", srv.URL, "history-export"}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotMethod != http.MethodPost || gotPath != "/v1/history/export" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
}

func TestRunHistoryArchivesTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/history/archives" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"archives":[{"key":"history/date=2026-01-02/history-0000000001-0000000003.parquet","size":512,"metadata":{"entries":"3"}}],"count":1}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "history-archives"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout.String(), "history-0000000001-0000000003.parquet") {
		t.Fatalf("output = %s", stdout.String())
	}
}

func TestRunHistoryArchiveReadsEntries(t *testing.T) {
	key := "history/date=2026-01-02/history-0000000001-0000000003.parquet"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/history/archives/"+key {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"key":"` + key + `","entries":[{"id":1,"question":"Who earns the highest salary?","status":"ok","row_count":1}],"count":1}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "history-archive", key}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout.String(), "Who earns the highest salary?") {
		t.Fatalf("output = %s", stdout.String())
	}

	var stderr bytes.Buffer
	if code := Run(context.Background(), []string{"-base-url", srv.URL, "history-archive"}, Options{Stderr: &stderr}); code != 2 {
		t.Fatalf("missing key exit code = %d", code)
	}
}

func TestRunReturnsErrorOnHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error_code":"AI_NOT_CONFIGURED"}`))
	}))
	defer srv.Close()

	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "translate", "q"}, Options{Stderr: &stderr})
	if code != 1 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "AI_NOT_CONFIGURED") {
		t.Fatalf("stderr = %s", stderr.String())
	}
}

func TestRunRequiresArgument(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"ask"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"unknown"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if stderr.Len() == 0 {
		t.Fatal("expected usage output")
	}
}
