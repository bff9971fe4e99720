package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"patio/internal/domain"
	"patio/internal/service"
)

// TeamHandler handles team and membership requests
type TeamHandler struct {
	teamService *service.TeamService
}

func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// Create handles POST /api/v1/teams
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}

	var req domain.CreateTeamRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	team, err := h.teamService.CreateTeam(r.Context(), authCtx.UserID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, team)
}

// List handles GET /api/v1/teams
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}

	teams, err := h.teamService.ListTeams(r.Context(), authCtx.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

// Get handles GET /api/v1/teams/{teamID}
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	teamID, err := teamIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	team, err := h.teamService.GetTeam(r.Context(), teamID, authCtx.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, team)
}

// UpdateSettings handles PUT /api/v1/teams/{teamID}/settings
func (h *TeamHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	teamID, err := teamIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req domain.UpdateTeamSettingsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	team, err := h.teamService.UpdateSettings(r.Context(), teamID, authCtx.UserID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, team)
}

// Join handles POST /api/v1/teams/join
func (h *TeamHandler) Join(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}

	var req domain.JoinTeamRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	team, err := h.teamService.JoinTeam(r.Context(), authCtx.UserID, req.Code)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, team)
}

// ListMembers handles GET /api/v1/teams/{teamID}/members
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	teamID, err := teamIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	members, err := h.teamService.ListMembers(r.Context(), teamID, authCtx.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

// RemoveMember handles DELETE /api/v1/teams/{teamID}/members/{userID}.
// A member removing themselves leaves the team.
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	teamID, err := teamIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	targetID := chi.URLParam(r, "userID")
	if err := h.teamService.RemoveMember(r.Context(), teamID, authCtx.UserID, targetID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateRole handles PUT /api/v1/teams/{teamID}/members/{userID}/role
func (h *TeamHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}
	teamID, err := teamIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req domain.UpdateRoleRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	targetID := chi.URLParam(r, "userID")
	if err := h.teamService.UpdateRole(r.Context(), teamID, authCtx.UserID, targetID, req.Role); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
