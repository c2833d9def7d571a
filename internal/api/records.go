package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/employee"
	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/storage"
)

const maxHistoryLimit = 1000

type employeeBody struct {
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	Salary        float64 `json:"salary"`
	SalaryDisplay string  `json:"salary_display"`
}

func handleListEmployees(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Employees == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "STORE_NOT_CONFIGURED", "employee store is not configured", false, nil)
		return
	}

	records, err := deps.Employees.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EMPLOYEE_LIST_FAILED", "failed to list employees", true, map[string]any{"details": err.Error()})
		return
	}

	items := make([]employeeBody, 0, len(records))
	for _, record := range records {
		items = append(items, employeeBody{
			Name:          record.Name,
			Role:          record.Role,
			Salary:        record.Salary,
			SalaryDisplay: employee.FormatSalary(record.Salary),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": items, "count": len(items)})
}

func handleListHistory(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.History == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "query history is not configured", false, nil)
		return
	}

	limit := cfg.History.ListLimit
	if limit <= 0 {
		limit = 50
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxHistoryLimit {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be an integer between 1 and 1000", false, map[string]any{"limit": raw})
			return
		}
		limit = parsed
	}

	entries, err := deps.History.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_LIST_FAILED", "failed to list history", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "limit": limit})
}

func handleGetHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.History == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "query history is not configured", false, nil)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_HISTORY_ID", "history id must be a positive integer", false, map[string]any{"id": r.PathValue("id")})
		return
	}

	entry, err := deps.History.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "HISTORY_NOT_FOUND", "history entry not found", false, map[string]any{"id": id})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_GET_FAILED", "failed to load history entry", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func handleExportHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Archive == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ARCHIVE_NOT_CONFIGURED", "history archive is not configured", false, nil)
		return
	}

	result, err := deps.Archive.Export(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "EXPORT_FAILED", "failed to export history", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func handleListArchives(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Archive == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ARCHIVE_NOT_CONFIGURED", "history archive is not configured", false, nil)
		return
	}

	objects, err := deps.Archive.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "ARCHIVE_LIST_FAILED", "failed to list history archives", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"archives": objects, "count": len(objects)})
}

func handleGetArchive(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Archive == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ARCHIVE_NOT_CONFIGURED", "history archive is not configured", false, nil)
		return
	}

	key := r.PathValue("key")
	entries, err := deps.Archive.Load(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "ARCHIVE_NOT_FOUND", "history archive not found", false, map[string]any{"key": key})
			return
		}
		writeError(r.Context(), w, http.StatusBadGateway, "ARCHIVE_READ_FAILED", "failed to read history archive", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "entries": entries, "count": len(entries)})
}
