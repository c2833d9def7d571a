package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/askdb/askdb/internal/assist"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/employee"
	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/history/archive"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/storage"
)

type ReadinessCheck func(ctx context.Context) error

// Pipeline is satisfied by *assist.Service.
type Pipeline interface {
	Configured() bool
	Ask(ctx context.Context, question string) (assist.Outcome, error)
	Translate(ctx context.Context, question string) (nl2sql.Result, error)
	Execute(ctx context.Context, sqlText string) (query.Result, error)
	Explain(ctx context.Context, sqlText string) (string, error)
}

type EmployeeLister interface {
	List(ctx context.Context) ([]employee.Record, error)
}

type HistoryReader interface {
	Get(ctx context.Context, id int64) (history.Entry, error)
	ListRecent(ctx context.Context, limit int) ([]history.Entry, error)
}

type ArchiveExporter interface {
	Export(ctx context.Context) (archive.Result, error)
	List(ctx context.Context) ([]storage.ObjectInfo, error)
	Load(ctx context.Context, key string) ([]history.Entry, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	DependencyTimeout time.Duration
	Pipeline          Pipeline
	Employees         EmployeeLister
	History           HistoryReader
	Archive           ArchiveExporter
	UI                http.Handler
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/ask", func(w http.ResponseWriter, r *http.Request) {
		handleAsk(deps, w, r)
	})
	mux.HandleFunc("POST /v1/query/translate", func(w http.ResponseWriter, r *http.Request) {
		handleTranslate(deps, w, r)
	})
	mux.HandleFunc("POST /v1/query/explain", func(w http.ResponseWriter, r *http.Request) {
		handleExplain(deps, w, r)
	})
	mux.HandleFunc("POST /v1/query", func(w http.ResponseWriter, r *http.Request) {
		handleQuery(deps, w, r)
	})
	mux.HandleFunc("GET /v1/employees", func(w http.ResponseWriter, r *http.Request) {
		handleListEmployees(deps, w, r)
	})
	mux.HandleFunc("GET /v1/history", func(w http.ResponseWriter, r *http.Request) {
		handleListHistory(cfg, deps, w, r)
	})
	mux.HandleFunc("GET /v1/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleGetHistory(deps, w, r)
	})
	mux.HandleFunc("GET /v1/history/archives", func(w http.ResponseWriter, r *http.Request) {
		handleListArchives(deps, w, r)
	})
	mux.HandleFunc("GET /v1/history/archives/{key...}", func(w http.ResponseWriter, r *http.Request) {
		handleGetArchive(deps, w, r)
	})
	mux.HandleFunc("POST /v1/history/export", func(w http.ResponseWriter, r *http.Request) {
		handleExportHistory(deps, w, r)
	})

	if deps.UI != nil {
		mux.Handle("GET /{$}", deps.UI)
		mux.Handle("POST /ask", deps.UI)
		mux.Handle("GET /employees", deps.UI)
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

// CombineReadinessChecks runs checks in order and stops at the first failure.
func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// NamedCheck prefixes a failing check's error with the dependency name.
func NamedCheck(name string, check ReadinessCheck) ReadinessCheck {
	if check == nil {
		return nil
	}
	return func(ctx context.Context) error {
		if err := check(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
