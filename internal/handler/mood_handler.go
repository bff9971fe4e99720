package handler

import (
	"net/http"

	"patio/internal/dates"
	"patio/internal/domain"
	"patio/internal/service"
	apperrors "patio/pkg/errors"
)

// MoodHandler handles mood entry requests
type MoodHandler struct {
	moodService *service.MoodService
}

func NewMoodHandler(moodService *service.MoodService) *MoodHandler {
	return &MoodHandler{moodService: moodService}
}

// validateSubmitRequest rejects malformed payloads before the service runs
// the domain invariants
func (h *MoodHandler) validateSubmitRequest(req *domain.SubmitMoodRequest) error {
	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		return apperrors.NewValidationError("Rating must be between 1 and 5", nil).
			WithReason("invalid_rating")
	}
	if len(req.Comment) > 10000 {
		return apperrors.NewValidationError("Comment is too long", nil)
	}
	if req.Visibility != "" && !req.Visibility.Valid() {
		return apperrors.NewValidationError("Visibility must be public or private", nil)
	}
	return nil
}

// PollDate handles GET /api/v1/teams/{teamID}/poll-date
func (h *MoodHandler) PollDate(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	teamID, err := teamIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	date, err := h.moodService.DefaultEntryDate(r.Context(), teamID, authCtx.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"date": date.String()})
}

// Submit handles POST /api/v1/teams/{teamID}/entries
func (h *MoodHandler) Submit(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	teamID, err := teamIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req domain.SubmitMoodRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.validateSubmitRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	entry, err := h.moodService.SubmitEntry(r.Context(), authCtx.UserID, teamID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// Update handles PUT /api/v1/entries/{entryID}
func (h *MoodHandler) Update(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	entryID, err := entryIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req domain.UpdateMoodRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		respondError(w, apperrors.NewValidationError("Rating must be between 1 and 5", nil).
			WithReason("invalid_rating"))
		return
	}

	entry, err := h.moodService.UpdateEntry(r.Context(), authCtx.UserID, entryID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /api/v1/entries/{entryID}
func (h *MoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	entryID, err := entryIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.moodService.DeleteEntry(r.Context(), authCtx.UserID, entryID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseRange reads from/to query parameters, defaulting to the trailing 30
// days ending today (UTC)
func parseRange(r *http.Request) (dates.Date, dates.Date, error) {
	today, err := dates.Today("")
	if err != nil {
		return dates.Date{}, dates.Date{}, apperrors.NewInternalError("Failed to resolve date", err)
	}

	from := today.AddDays(-29)
	to := today

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = dates.Parse(raw)
		if err != nil {
			return dates.Date{}, dates.Date{}, apperrors.NewValidationError("from must be YYYY-MM-DD", nil).
				WithReason("invalid_date_format")
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = dates.Parse(raw)
		if err != nil {
			return dates.Date{}, dates.Date{}, apperrors.NewValidationError("to must be YYYY-MM-DD", nil).
				WithReason("invalid_date_format")
		}
	}

	if to.Before(from) {
		return dates.Date{}, dates.Date{}, apperrors.NewValidationError("Range end precedes range start", nil)
	}
	return from, to, nil
}

// List handles GET /api/v1/teams/{teamID}/entries
func (h *MoodHandler) List(w http.ResponseWriter, r *http.Request) {
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

	entries, err := h.moodService.ListTeamEntries(r.Context(), authCtx.UserID, teamID, from, to)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"from":    from.String(),
		"to":      to.String(),
	})
}
