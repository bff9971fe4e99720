package handler

import (
	"net/http"
	"strconv"

	"patio/internal/service"
	apperrors "patio/pkg/errors"
)

// StatsHandler serves team sentiment aggregates
type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Trend handles GET /api/v1/teams/{teamID}/stats/trend
func (h *StatsHandler) Trend(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	teamID, err := teamIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	from, to, err := parseRange(r)
	if err != nil {
		respondError(w, err)
		return
	}

	window := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		window, err = strconv.Atoi(raw)
		if err != nil || window < 1 {
			respondError(w, apperrors.NewValidationError("window must be a positive integer", nil))
			return
		}
	}

	trend, err := h.statsService.TeamTrend(r.Context(), teamID, authCtx.UserID, from, to, window)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, trend)
}

// Participation handles GET /api/v1/teams/{teamID}/stats/participation
func (h *StatsHandler) Participation(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	teamID, err := teamIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	from, to, err := parseRange(r)
	if err != nil {
		respondError(w, err)
		return
	}

	stats, err := h.statsService.TeamParticipation(r.Context(), teamID, authCtx.UserID, from, to)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
