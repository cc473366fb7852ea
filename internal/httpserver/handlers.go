package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mi3lix9/health-monitor-360-ig/internal/analysis"
	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
	"github.com/mi3lix9/health-monitor-360-ig/internal/store"
	"github.com/mi3lix9/health-monitor-360-ig/internal/vitals"
)

type createReadingRequest struct {
	PlayerID uuid.UUID `json:"player_id" validate:"required"`
	domain.Metrics
	Timestamp *time.Time `json:"timestamp"`
}

type readingResponse struct {
	Success bool           `json:"success"`
	Data    domain.Reading `json:"data"`
	Message string         `json:"message,omitempty"`
}

const (
	msgAlertVerified = "Alert reading recorded and analyzed."
	msgAlertPending  = "Alert reading recorded with preliminary analysis. Comprehensive analysis will be processed in background."
	msgAlertQueued   = "Alert reading recorded. Analysis failed but will be retried."
)

// createReading ingests one vital-sign reading. The reading is persisted
// before any analysis is attempted; analysis problems degrade the response
// message, never the status code.
func (a *App) createReading(w http.ResponseWriter, r *http.Request) {
	var req createReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	reading := domain.Reading{
		ID:       uuid.New(),
		PlayerID: req.PlayerID,
		Metrics:  req.Metrics,
		State:    vitals.Classify(req.Metrics),
	}
	if req.Timestamp != nil {
		reading.Timestamp = req.Timestamp.UTC()
	}

	if err := a.Store.InsertReading(ctx, &reading); err != nil {
		a.Logger.Error("insert reading failed", "player_id", req.PlayerID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store reading")
		return
	}

	player := a.lookupPlayer(ctx, reading.PlayerID)

	if reading.State != domain.StateAlert {
		result := analysis.Basic(reading, player)
		a.attachAnalysis(ctx, &reading, result)
		writeJSON(w, http.StatusOK, readingResponse{Success: true, Data: reading})
		return
	}

	result, err := a.Analyzer.InvokeInline(ctx, reading, player)
	a.attachAnalysis(ctx, &reading, result)

	msg := msgAlertVerified
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		msg = msgAlertPending
	default:
		msg = msgAlertQueued
	}
	writeJSON(w, http.StatusOK, readingResponse{Success: true, Data: reading, Message: msg})
}

// lookupPlayer degrades to a placeholder on any failure: a broken player
// record must not block analysis of the reading.
func (a *App) lookupPlayer(ctx context.Context, id uuid.UUID) domain.Player {
	player, err := a.Store.Player(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.Logger.Warn("player lookup failed", "player_id", id, "err", err)
		}
		return domain.PlaceholderPlayer(id)
	}
	return *player
}

func (a *App) attachAnalysis(ctx context.Context, reading *domain.Reading, result *domain.AnalysisResult) {
	if result == nil {
		return
	}
	if err := a.Store.SaveAnalysis(ctx, reading.ID, result); err != nil {
		// The response still carries the analysis; only the stored copy
		// is missing, and the retry queue covers alert readings.
		a.Logger.Error("save analysis failed", "reading_id", reading.ID, "err", err)
	}
	reading.Analysis = result
}

func (a *App) getReading(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "reading_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reading id")
		return
	}

	reading, err := a.Store.Reading(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reading not found")
			return
		}
		a.Logger.Error("get reading failed", "reading_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load reading")
		return
	}
	writeJSON(w, http.StatusOK, readingResponse{Success: true, Data: *reading})
}

func (a *App) listPlayerReadings(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "player_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}

	readings, err := a.Store.PlayerReadings(r.Context(), id, 50)
	if err != nil {
		a.Logger.Error("list readings failed", "player_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": readings})
}

type createPlayerRequest struct {
	Name         string `json:"name" validate:"required"`
	Position     string `json:"position" validate:"required"`
	Team         string `json:"team"`
	JerseyNumber int    `json:"jersey_number" validate:"gte=0"`
}

func (a *App) createPlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	player := domain.Player{
		Name:         req.Name,
		Position:     req.Position,
		Team:         req.Team,
		JerseyNumber: req.JerseyNumber,
	}
	if err := a.Store.InsertPlayer(r.Context(), &player); err != nil {
		a.Logger.Error("insert player failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store player")
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (a *App) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := a.Store.ListPlayers(r.Context())
	if err != nil {
		a.Logger.Error("list players failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load players")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": players})
}
