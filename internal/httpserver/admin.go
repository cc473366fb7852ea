package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mi3lix9/health-monitor-360-ig/internal/retryqueue"
	"github.com/mi3lix9/health-monitor-360-ig/internal/worker"
)

const defaultAdminPageSize = 10

func (a *App) listRetryJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := retryqueue.FilterAll
	if v := q.Get("status"); v != "" {
		filter = retryqueue.StatusFilter(v)
	}
	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), defaultAdminPageSize)

	jobs, total, err := a.Queue.List(r.Context(), filter, page, pageSize)
	if err != nil {
		if errors.Is(err, retryqueue.ErrInvalidFilter) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.Logger.Error("list retry jobs failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list retry jobs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":     jobs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (a *App) retryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Queue.Stats(r.Context())
	if err != nil {
		a.Logger.Error("retry stats failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *App) resetRetryJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "job_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	if err := a.Queue.Reset(r.Context(), id); err != nil {
		if errors.Is(err, retryqueue.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		a.Logger.Error("reset retry job failed", "job_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to reset job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *App) deleteRetryJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "job_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	if err := a.Queue.Delete(r.Context(), id); err != nil {
		if errors.Is(err, retryqueue.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		a.Logger.Error("delete retry job failed", "job_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type processRequest struct {
	BatchSize int `json:"batch_size"`
}

// processRetryQueue triggers one drain pass outside the 30s cadence. The
// single-flight guard still applies: a pass already in progress makes this
// a no-op with zeroed counts.
func (a *App) processRetryQueue(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	if req.BatchSize <= 0 {
		req.BatchSize = worker.DefaultBatchSize
	}

	result, err := a.Drainer.RunPass(r.Context(), req.BatchSize)
	if err != nil {
		a.Logger.Error("on-demand drain failed", "err", err)
		writeError(w, http.StatusInternalServerError, "drain pass failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func queryInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
