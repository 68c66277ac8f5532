package handlers

import (
	"context"
	"net/http"

	"github.com/anhbaysgalan1/leaderboardd/internal/models"
	"github.com/go-chi/chi/v5"
)

// ResetService defines the service surface the reset handlers need
type ResetService interface {
	ResetWeekly(ctx context.Context) error
	ResetMonthly(ctx context.Context) error
}

// ResetHandler exposes the administrative force-reset endpoints. They call
// the same service methods the scheduler does.
type ResetHandler struct {
	service ResetService
}

func NewResetHandler(service ResetService) *ResetHandler {
	return &ResetHandler{service: service}
}

func (h *ResetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/weekly", h.ForceResetWeekly)
	r.Post("/monthly", h.ForceResetMonthly)

	return r
}

// ForceResetWeekly zeroes every player's weekly score immediately
func (h *ResetHandler) ForceResetWeekly(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetWeekly(r.Context()); err != nil {
		writeStoreError(w, "Weekly reset failed", err)
		return
	}

	writeJSONResponse(w, http.StatusAccepted, models.ResetResponse{OK: true, Period: "weekly"})
}

// ForceResetMonthly zeroes every player's monthly score immediately
func (h *ResetHandler) ForceResetMonthly(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetMonthly(r.Context()); err != nil {
		writeStoreError(w, "Monthly reset failed", err)
		return
	}

	writeJSONResponse(w, http.StatusAccepted, models.ResetResponse{OK: true, Period: "monthly"})
}
