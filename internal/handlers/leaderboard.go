package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anhbaysgalan1/leaderboardd/internal/models"
	"github.com/anhbaysgalan1/leaderboardd/internal/services"
	"github.com/anhbaysgalan1/leaderboardd/internal/store"
	"github.com/go-chi/chi/v5"
)

// LeaderboardService defines the service surface the leaderboard handlers need
type LeaderboardService interface {
	ApplyAuthoritativeUpdate(ctx context.Context, id, scoreDelta, globalScore, level int64) (*models.PlayerRecord, error)
	BatchApplyAuthoritativeUpdate(ctx context.Context, updates []models.UpdateRecordRequest) ([]models.PlayerRecord, error)
	GetTop(ctx context.Context, period string, limit int) ([]models.PlayerRecord, error)
	GetByID(ctx context.Context, id int64) (*models.PlayerRecord, error)
}

type LeaderboardHandler struct {
	service LeaderboardService
	loc     *time.Location
}

func NewLeaderboardHandler(service LeaderboardService, loc *time.Location) *LeaderboardHandler {
	return &LeaderboardHandler{service: service, loc: loc}
}

func (h *LeaderboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/global", h.TopGlobal)
	r.Get("/level", h.TopLevel)
	r.Get("/weekly", h.TopWeekly)
	r.Get("/monthly", h.TopMonthly)
	r.Get("/player/{id}", h.GetPlayer)
	r.Post("/update", h.Update)
	r.Post("/batch", h.BatchUpdate)

	return r
}

// TopGlobal returns the top players by overall score
func (h *LeaderboardHandler) TopGlobal(w http.ResponseWriter, r *http.Request) {
	h.top(w, r, "overall", "global")
}

// TopLevel returns the top players by level
func (h *LeaderboardHandler) TopLevel(w http.ResponseWriter, r *http.Request) {
	h.top(w, r, "level", "level")
}

// TopWeekly returns the top players by weekly score, labeled with the
// current ISO week number
func (h *LeaderboardHandler) TopWeekly(w http.ResponseWriter, r *http.Request) {
	h.top(w, r, "weekly", strconv.Itoa(services.CurrentISOWeek(h.loc)))
}

// TopMonthly returns the top players by monthly score, labeled with the
// current month name
func (h *LeaderboardHandler) TopMonthly(w http.ResponseWriter, r *http.Request) {
	h.top(w, r, "monthly", services.CurrentMonthName(h.loc))
}

func (h *LeaderboardHandler) top(w http.ResponseWriter, r *http.Request, period, label string) {
	limit, err := parseLimit(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.service.GetTop(r.Context(), period, limit)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPeriod) {
			writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		writeStoreError(w, "Failed to fetch "+period+" leaderboard", err)
		return
	}

	writeJSONResponse(w, http.StatusOK, models.TopListResponse{Period: label, Top: records})
}

// GetPlayer returns a single player's record
func (h *LeaderboardHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Player id must be an integer")
		return
	}

	record, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "Player not found")
			return
		}
		writeStoreError(w, "Failed to fetch player", err)
		return
	}

	writeJSONResponse(w, http.StatusOK, record)
}

// Update applies a single authoritative update from the game server
func (h *LeaderboardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	record, err := h.service.ApplyAuthoritativeUpdate(r.Context(), req.User, req.NewWins, req.GlobalWins, req.Level)
	if err != nil {
		writeStoreError(w, "Update failed", err)
		return
	}

	writeJSONResponse(w, http.StatusOK, record)
}

// BatchUpdate applies authoritative updates for many players, fail-fast.
// On failure the response names the failing record and how many committed,
// so the game server can retry just the remainder.
func (h *LeaderboardHandler) BatchUpdate(w http.ResponseWriter, r *http.Request) {
	var reqs []models.UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	results, err := h.service.BatchApplyAuthoritativeUpdate(r.Context(), reqs)
	if err != nil {
		var batchErr *services.BatchError
		if errors.As(err, &batchErr) {
			writeJSONResponse(w, http.StatusInternalServerError, map[string]interface{}{
				"error":         "Batch update failed",
				"failed_record": batchErr.Index,
				"succeeded":     batchErr.Succeeded,
			})
			return
		}
		writeStoreError(w, "Batch update failed", err)
		return
	}

	writeJSONResponse(w, http.StatusOK, results)
}

// parseLimit reads the limit query parameter, defaulting to 10 and
// enforcing the caller-facing 1-100 bound.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 10, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 100 {
		return 0, errors.New("limit must be an integer between 1 and 100")
	}

	return limit, nil
}
