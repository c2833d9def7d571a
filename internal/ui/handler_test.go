package ui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/assist"
	"github.com/askdb/askdb/internal/employee"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/query"
)

func TestIndexShowsSidebarAndForm(t *testing.T) {
	h := NewHandler(Options{Pipeline: &fakePipeline{configured: true}, DatabaseID: "Naresh_it_employee1.db"})

	body := serve(t, h, http.MethodGet, "/", nil, http.StatusOK)
	for _, want := range []string{
		"API Key Loaded",
		"Database: Naresh_it_employee1.db",
		`name="question"`,
		"Generate &amp; Run",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
	if strings.Contains(body, missingKeyMessage) {
		t.Fatal("missing-key banner shown with a loaded key")
	}
}

func TestMissingCredentialBannerOnEveryPage(t *testing.T) {
	h := NewHandler(Options{Pipeline: &fakePipeline{}, Employees: &fakeEmployees{}, DatabaseID: "x.db"})

	for _, path := range []string{"/", "/employees"} {
		body := serve(t, h, http.MethodGet, path, nil, http.StatusOK)
		if !strings.Contains(body, "API Key Missing") || !strings.Contains(body, missingKeyMessage) {
			t.Fatalf("%s missing credential banner", path)
		}
	}
}

func TestAskBlankQuestionWarnsWithoutCalls(t *testing.T) {
	pipeline := &fakePipeline{configured: true}
	h := NewHandler(Options{Pipeline: pipeline})

	body := serve(t, h, http.MethodPost, "/ask", url.Values{"question": {"   "}}, http.StatusOK)
	if !strings.Contains(body, "Please enter a question.") {
		t.Fatalf("body missing warning: %s", body)
	}
	if pipeline.translations != 0 {
		t.Fatalf("translations = %d", pipeline.translations)
	}
}

func TestAskRendersTwoColumns(t *testing.T) {
	pipeline := &fakePipeline{configured: true, outcome: assist.Outcome{
		Translation: nl2sql.Result{SQL: "SELECT * FROM Naresh_it_employee1 ORDER BY employee_salary DESC LIMIT 1"},
		Result: query.Result{
			Columns: []string{"employee_name", "employee_role", "employee_salary"},
			Rows:    [][]any{{"Naresh", "Data Science", float64(90000)}},
		},
		Explanation: "Orders employees by salary and keeps the first.",
	}}
	h := NewHandler(Options{Pipeline: pipeline})

	body := serve(t, h, http.MethodPost, "/ask", url.Values{"question": {"Who earns the highest salary?"}}, http.StatusOK)
	for _, want := range []string{
		"Generated SQL",
		"ORDER BY employee_salary DESC LIMIT 1",
		"Query Result",
		"<th>employee_name</th>",
		"<td>Naresh</td>",
		"<td>90000</td>",
		"Query Explanation",
		"Orders employees by salary and keeps the first.",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestAskTranslationFailureShowsBannerOnly(t *testing.T) {
	pipeline := &fakePipeline{configured: true, outcome: assist.Outcome{TranslateErr: errors.New("quota exceeded")}}
	h := NewHandler(Options{Pipeline: pipeline})

	body := serve(t, h, http.MethodPost, "/ask", url.Values{"question": {"q"}}, http.StatusOK)
	if !strings.Contains(body, "Error generating SQL: quota exceeded") {
		t.Fatalf("body missing translation failure: %s", body)
	}
	if strings.Contains(body, "Generated SQL") {
		t.Fatal("result columns rendered after translation failure")
	}
}

func TestAskExecutionAndExplanationFailures(t *testing.T) {
	pipeline := &fakePipeline{configured: true, outcome: assist.Outcome{
		Translation: nl2sql.Result{SQL: "SELECT nope FROM t"},
		ExecErr:     &query.ExecutionError{Message: "no such column: nope"},
		ExplainErr:  errors.New("timeout"),
	}}
	h := NewHandler(Options{Pipeline: pipeline})

	body := serve(t, h, http.MethodPost, "/ask", url.Values{"question": {"q"}}, http.StatusOK)
	if !strings.Contains(body, "Execution Error: no such column: nope") {
		t.Fatalf("body missing execution error: %s", body)
	}
	if !strings.Contains(body, "Could not generate explanation: timeout") {
		t.Fatalf("body missing explanation failure: %s", body)
	}
}

func TestEmployeesPageListsRecords(t *testing.T) {
	h := NewHandler(Options{Pipeline: &fakePipeline{configured: true}, Employees: &fakeEmployees{records: []employee.Record{
		{Name: "Omkar Nallagoni", Role: "Data Science", Salary: 75000},
	}}})

	body := serve(t, h, http.MethodGet, "/employees", nil, http.StatusOK)
	for _, want := range []string{"Omkar Nallagoni", "Data Science", "₹75,000.00", "Naresh IT Employee Database"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestEmployeesPageEmptyAndFailure(t *testing.T) {
	h := NewHandler(Options{Pipeline: &fakePipeline{configured: true}, Employees: &fakeEmployees{}})
	body := serve(t, h, http.MethodGet, "/employees", nil, http.StatusOK)
	if !strings.Contains(body, "No records found.") {
		t.Fatalf("body missing empty notice: %s", body)
	}

	h = NewHandler(Options{Pipeline: &fakePipeline{configured: true}, Employees: &fakeEmployees{err: errors.New("no such table")}})
	body = serve(t, h, http.MethodGet, "/employees", nil, http.StatusInternalServerError)
	if !strings.Contains(body, "no such table") {
		t.Fatalf("body missing failure: %s", body)
	}
}

func TestCellString(t *testing.T) {
	cases := map[string]any{
		"NULL":     nil,
		"48333.33": 48333.33,
		"90000":    float64(90000),
		"7":        int64(7),
		"Naresh":   "Naresh",
	}
	for want, value := range cases {
		if got := cellString(value); got != want {
			t.Fatalf("cellString(%#v) = %q, want %q", value, got, want)
		}
	}
}

func serve(t *testing.T, h http.Handler, method, path string, form url.Values, wantStatus int) string {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != wantStatus {
		t.Fatalf("%s %s status = %d, want %d", method, path, rr.Code, wantStatus)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
	return rr.Body.String()
}

type fakePipeline struct {
	configured   bool
	outcome      assist.Outcome
	translations int
}

func (f *fakePipeline) Configured() bool { return f.configured }

func (f *fakePipeline) Ask(_ context.Context, question string) (assist.Outcome, error) {
	if strings.TrimSpace(question) == "" {
		return assist.Outcome{}, nl2sql.ErrEmptyQuestion
	}
	if !f.configured {
		return assist.Outcome{}, assist.ErrNotConfigured
	}
	f.translations++
	outcome := f.outcome
	outcome.Question = question
	return outcome, nil
}

type fakeEmployees struct {
	records []employee.Record
	err     error
}

func (f *fakeEmployees) List(context.Context) ([]employee.Record, error) {
	return f.records, f.err
}
