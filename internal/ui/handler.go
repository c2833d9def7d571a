// Package ui serves the HTML pages: the question form with its results and
// the employee listing.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gomponents "maragu.dev/gomponents"

	"github.com/askdb/askdb/internal/assist"
	"github.com/askdb/askdb/internal/employee"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
)

const maxFormBytes = 64 << 10

type Pipeline interface {
	Configured() bool
	Ask(ctx context.Context, question string) (assist.Outcome, error)
}

type EmployeeLister interface {
	List(ctx context.Context) ([]employee.Record, error)
}

type Options struct {
	Pipeline   Pipeline
	Employees  EmployeeLister
	DatabaseID string
	Logger     *slog.Logger
}

type Handler struct {
	pipeline   Pipeline
	employees  EmployeeLister
	databaseID string
	logger     *slog.Logger
	mux        *http.ServeMux
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	h := &Handler{
		pipeline:   opts.Pipeline,
		employees:  opts.Employees,
		databaseID: opts.DatabaseID,
		logger:     logger,
		mux:        http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /{$}", h.IndexPage)
	h.mux.HandleFunc("POST /ask", h.AskSubmit)
	h.mux.HandleFunc("GET /employees", h.EmployeesPage)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) IndexPage(w http.ResponseWriter, _ *http.Request) {
	renderHTML(w, http.StatusOK, askPage(h.chrome(), askView{}))
}

func (h *Handler) AskSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, askPage(h.chrome(), askView{Failure: "Invalid form submission."}))
		return
	}

	question := r.PostForm.Get("question")
	view := askView{Question: question}
	if h.pipeline == nil {
		view.Failure = "Question pipeline is not configured."
		renderHTML(w, http.StatusOK, askPage(h.chrome(), view))
		return
	}

	outcome, err := h.pipeline.Ask(r.Context(), question)
	switch {
	case errors.Is(err, nl2sql.ErrEmptyQuestion):
		view.Warning = "Please enter a question."
	case errors.Is(err, assist.ErrNotConfigured):
		// the missing-key banner is already on every page
	case err != nil:
		h.logger.ErrorContext(r.Context(), "ask failed", "error", err)
		view.Failure = err.Error()
	case outcome.TranslateErr != nil:
		view.Failure = "Error generating SQL: " + outcome.TranslateErr.Error()
	default:
		view.Outcome = &outcome
	}
	renderHTML(w, http.StatusOK, askPage(h.chrome(), view))
}

func (h *Handler) EmployeesPage(w http.ResponseWriter, r *http.Request) {
	if h.employees == nil {
		renderHTML(w, http.StatusOK, employeesPage(h.chrome(), nil, "Employee store is not configured."))
		return
	}
	records, err := h.employees.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list employees failed", "error", err)
		renderHTML(w, http.StatusInternalServerError, employeesPage(h.chrome(), nil, "Could not load employee records: "+err.Error()))
		return
	}
	renderHTML(w, http.StatusOK, employeesPage(h.chrome(), records, ""))
}

func (h *Handler) chrome() chrome {
	return chrome{
		CredentialLoaded: h.pipeline != nil && h.pipeline.Configured(),
		DatabaseID:       strings.TrimSpace(h.databaseID),
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
