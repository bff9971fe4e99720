package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"patio/internal/domain"
	"patio/internal/middleware"
	apperrors "patio/pkg/errors"
)

// respondJSON writes a JSON body with the given status
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondError writes the JSON error envelope. Unknown errors become 500s
// without leaking internals.
func respondError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("Something went wrong", err)
	}

	response := &apperrors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Reason = appErr.Reason
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}

// requireAuth returns the authenticated caller or writes a 401
func requireAuth(w http.ResponseWriter, r *http.Request) *domain.AuthContext {
	authCtx := middleware.AuthFromContext(r.Context())
	if authCtx == nil {
		respondError(w, apperrors.NewAuthenticationError("Authentication required"))
		return nil
	}
	return authCtx
}

// teamIDParam parses the {teamID} route parameter
func teamIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "teamID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("Invalid team ID", nil)
	}
	return id, nil
}

// entryIDParam parses the {entryID} route parameter
func entryIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "entryID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("Invalid entry ID", nil)
	}
	return id, nil
}

// decodeBody decodes a JSON request body into dest
func decodeBody(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	return nil
}
