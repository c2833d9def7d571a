package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/assist"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/query"
)

type askRequest struct {
	Question string `json:"question"`
}

type sqlRequest struct {
	SQL string `json:"sql"`
}

type executionErrorBody struct {
	Message  string   `json:"message"`
	Rejected bool     `json:"rejected"`
	Columns  []string `json:"columns"`
	Row      []any    `json:"row"`
}

type askResponse struct {
	Question         string              `json:"question"`
	SQL              string              `json:"sql"`
	Provider         string              `json:"provider"`
	Model            string              `json:"model"`
	Columns          []string            `json:"columns"`
	Rows             [][]any             `json:"rows"`
	ExecutionError   *executionErrorBody `json:"execution_error"`
	Explanation      string              `json:"explanation"`
	ExplanationError string              `json:"explanation_error,omitempty"`
	HistoryID        int64               `json:"history_id,omitempty"`
	DurationMs       int64               `json:"duration_ms"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if !pipelineReady(deps, w, r) {
		return
	}

	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}

	outcome, err := deps.Pipeline.Ask(r.Context(), req.Question)
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	if outcome.TranslateErr != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "TRANSLATE_FAILED", "failed to translate question", true, map[string]any{"details": outcome.TranslateErr.Error()})
		return
	}

	resp := askResponse{
		Question:    outcome.Question,
		SQL:         outcome.Translation.SQL,
		Provider:    outcome.Translation.Provider,
		Model:       outcome.Translation.Model,
		Columns:     outcome.Result.Columns,
		Rows:        outcome.Result.Rows,
		Explanation: outcome.Explanation,
		HistoryID:   outcome.HistoryID,
		DurationMs:  outcome.Duration.Milliseconds(),
	}
	if outcome.ExecErr != nil {
		resp.ExecutionError = executionErrorFrom(outcome.ExecErr)
	}
	if outcome.ExplainErr != nil {
		resp.ExplanationError = outcome.ExplainErr.Error()
	}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	if resp.Rows == nil {
		resp.Rows = [][]any{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleTranslate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if !pipelineReady(deps, w, r) {
		return
	}

	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid translation request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writePipelineError(w, r, nl2sql.ErrEmptyQuestion)
		return
	}

	result, err := deps.Pipeline.Translate(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, nl2sql.ErrEmptyQuestion) || errors.Is(err, assist.ErrNotConfigured) {
			writePipelineError(w, r, err)
			return
		}
		writeError(r.Context(), w, http.StatusBadGateway, "TRANSLATE_FAILED", "failed to translate question", true, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sql":      result.SQL,
		"provider": result.Provider,
		"model":    result.Model,
	})
}

func handleExplain(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if !pipelineReady(deps, w, r) {
		return
	}

	var req sqlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid explain request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}

	explanation, err := deps.Pipeline.Explain(r.Context(), req.SQL)
	if err != nil {
		if errors.Is(err, assist.ErrNotConfigured) {
			writePipelineError(w, r, err)
			return
		}
		writeError(r.Context(), w, http.StatusBadGateway, "EXPLAIN_FAILED", "failed to explain query", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"explanation": explanation})
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query engine is not configured", false, nil)
		return
	}

	var req sqlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}

	result, err := deps.Pipeline.Execute(r.Context(), req.SQL)
	if err != nil {
		body := executionErrorFrom(err)
		code := "QUERY_EXECUTION_FAILED"
		if body.Rejected {
			code = "SQL_NOT_ALLOWED"
		}
		writeError(r.Context(), w, http.StatusBadRequest, code, body.Message, false, map[string]any{
			"columns": body.Columns,
			"row":     body.Row,
		})
		return
	}

	rows := result.Rows
	if rows == nil {
		rows = [][]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"columns": result.Columns,
		"rows":    rows,
		"stats": map[string]any{
			"duration_ms": result.Duration.Milliseconds(),
			"row_count":   len(rows),
		},
	})
}

func pipelineReady(deps Dependencies, w http.ResponseWriter, r *http.Request) bool {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "question pipeline is not configured", false, nil)
		return false
	}
	if !deps.Pipeline.Configured() {
		writePipelineError(w, r, assist.ErrNotConfigured)
		return false
	}
	return true
}

func writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, nl2sql.ErrEmptyQuestion):
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "Please enter a question.", false, nil)
	case errors.Is(err, assist.ErrNotConfigured):
		writeError(r.Context(), w, http.StatusServiceUnavailable, "AI_NOT_CONFIGURED", "API Key not found. Please check your .env file.", false, nil)
	default:
		writeError(r.Context(), w, http.StatusInternalServerError, "PIPELINE_FAILED", err.Error(), true, nil)
	}
}

func executionErrorFrom(err error) *executionErrorBody {
	var execErr *query.ExecutionError
	if !errors.As(err, &execErr) {
		execErr = &query.ExecutionError{Message: err.Error(), Err: err}
	}
	row, columns := execErr.Row()
	return &executionErrorBody{
		Message:  execErr.Message,
		Rejected: execErr.Rejected,
		Columns:  columns,
		Row:      row,
	}
}
