package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/courtlake/internal/backfill"
	"github.com/fortuna/courtlake/internal/logger"
	"github.com/fortuna/courtlake/internal/store"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// RunLister lists persisted backfill runs.
type RunLister interface {
	ListRecentRuns(ctx context.Context, limit int) ([]*backfill.Summary, error)
}

// LatestRunReader returns the summary of the last finished run, or nil when there is none.
type LatestRunReader interface {
	LatestRun(ctx context.Context) (*backfill.Summary, error)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Summaries reads the warehouse summary views.
type Summaries interface {
	TeamSeason(ctx context.Context, seasonID int) ([]*store.TeamSeasonSummary, error)
	PlayerGame(ctx context.Context, gameID string) ([]*store.PlayerGameSummary, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	tracker   *StatusTracker
	runs      RunLister
	summaries Summaries
	latest    LatestRunReader
	db        HealthChecker
	log       *logger.Logger
}

// NewHandler creates a new handler. Everything but tracker may be nil.
func NewHandler(tracker *StatusTracker, runs RunLister, summaries Summaries, db HealthChecker, log *logger.Logger) *Handler {
	return &Handler{
		tracker:   tracker,
		runs:      runs,
		summaries: summaries,
		db:        db,
		log:       logger.OrNop(log),
	}
}

// SetLatestRuns serves /backfill/latest from the event stream's stored summary.
func (h *Handler) SetLatestRuns(latest LatestRunReader) {
	h.latest = latest
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status":  "healthy",
		"service": "courtlake",
	}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.HealthCheck(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "Warehouse unreachable", err)
			return
		}
		resp["warehouse"] = "ok"
	}
	respondJSON(w, http.StatusOK, resp)
}

// BackfillStatus handles GET /api/v1/backfill/status
func (h *Handler) BackfillStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.tracker.Snapshot())
}

// LatestRun handles GET /api/v1/backfill/latest
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	if h.latest == nil {
		respondError(w, http.StatusNotImplemented, "Latest run requires Redis", nil)
		return
	}

	summary, err := h.latest.LatestRun(r.Context())
	if err != nil {
		h.log.Error("read latest run failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch latest run", err)
		return
	}
	if summary == nil {
		respondError(w, http.StatusNotFound, "No finished run", nil)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// BackfillRuns handles GET /api/v1/backfill/runs?limit=N
func (h *Handler) BackfillRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusNotImplemented, "Run history requires a warehouse", nil)
		return
	}

	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := h.runs.ListRecentRuns(r.Context(), limit)
	if err != nil {
		h.log.Error("list backfill runs failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch run history", err)
		return
	}
	if runs == nil {
		runs = []*backfill.Summary{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// TeamSeasonSummary handles GET /api/v1/seasons/{season}/teams
func (h *Handler) TeamSeasonSummary(w http.ResponseWriter, r *http.Request) {
	if h.summaries == nil {
		respondError(w, http.StatusNotImplemented, "Summaries require a warehouse", nil)
		return
	}

	season, err := strconv.Atoi(mux.Vars(r)["season"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid season", err)
		return
	}

	teams, err := h.summaries.TeamSeason(r.Context(), season)
	if err != nil {
		h.log.Error("team season summary failed", "season", season, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch team summary", err)
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

// PlayerGameSummary handles GET /api/v1/games/{gameID}/players
func (h *Handler) PlayerGameSummary(w http.ResponseWriter, r *http.Request) {
	if h.summaries == nil {
		respondError(w, http.StatusNotImplemented, "Summaries require a warehouse", nil)
		return
	}

	gameID := mux.Vars(r)["gameID"]
	lines, err := h.summaries.PlayerGame(r.Context(), gameID)
	if err != nil {
		h.log.Error("player game summary failed", "game_id", gameID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch player summary", err)
		return
	}
	if len(lines) == 0 {
		respondError(w, http.StatusNotFound, "Game not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, lines)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
