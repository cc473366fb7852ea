// Package httpserver exposes the ingestion and admin HTTP API.
package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
	"github.com/mi3lix9/health-monitor-360-ig/internal/retryqueue"
	"github.com/mi3lix9/health-monitor-360-ig/internal/store"
	"github.com/mi3lix9/health-monitor-360-ig/internal/worker"
)

// Analyzer is the inline analysis path for alert readings. err == nil means
// the returned result is externally verified.
type Analyzer interface {
	InvokeInline(ctx context.Context, reading domain.Reading, player domain.Player) (*domain.AnalysisResult, error)
}

// Drainer runs one on-demand retry-queue pass.
type Drainer interface {
	RunPass(ctx context.Context, batchSize int) (worker.Result, error)
}

// App holds the handler dependencies.
type App struct {
	Store    store.Store
	Queue    *retryqueue.Service
	Analyzer Analyzer
	Drainer  Drainer
	Logger   *slog.Logger

	validate *validator.Validate
}

func NewApp(st store.Store, queue *retryqueue.Service, analyzer Analyzer, drainer Drainer, logger *slog.Logger) *App {
	return &App{
		Store:    st,
		Queue:    queue,
		Analyzer: analyzer,
		Drainer:  drainer,
		Logger:   logger,
		validate: validator.New(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
