package handler

import (
	"net/http"
	"time"

	"patio/internal/domain"
	"patio/internal/repository"
	"patio/internal/service"
	apperrors "patio/pkg/errors"
	"patio/pkg/logger"
)

// AuthHandler handles sign-in and profile requests
type AuthHandler struct {
	authService service.AuthService
	users       repository.UserRepository
	defaultTZ   string
	logger      *logger.Logger
}

func NewAuthHandler(authService service.AuthService, users repository.UserRepository, defaultTZ string, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
		defaultTZ:   defaultTZ,
		logger:      logger,
	}
}

// signInRequest carries either a Google ID token or an OAuth code
type signInRequest struct {
	Credential string `json:"credential,omitempty"`
	Code       string `json:"code,omitempty"`
}

// signInResponse is the session issued after a verified sign-in
type signInResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// GoogleSignIn handles POST /api/v1/auth/google
func (h *AuthHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signInRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	var profile *domain.UserProfile
	var err error
	switch {
	case req.Credential != "":
		profile, err = h.authService.VerifyGoogleCredential(ctx, req.Credential)
	case req.Code != "":
		profile, err = h.authService.ExchangeCode(ctx, req.Code)
	default:
		err = apperrors.NewValidationError("Either credential or code is required", nil)
	}
	if err != nil {
		respondError(w, err)
		return
	}

	user := &domain.User{
		ID:       profile.Sub,
		Email:    profile.Email,
		Name:     profile.Name,
		Picture:  profile.Picture,
		Timezone: h.defaultTZ,
	}
	if err := h.users.Upsert(ctx, user); err != nil {
		h.logger.WithError(err).Error("Failed to upsert user on sign-in")
		respondError(w, apperrors.NewInternalError("Failed to sign in", err))
		return
	}

	token, err := h.authService.IssueSessionToken(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue session token")
		respondError(w, apperrors.NewInternalError("Failed to sign in", err))
		return
	}

	respondJSON(w, http.StatusOK, signInResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.authService.SessionTTL()),
		User:      user,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}

	user, err := h.users.GetByID(r.Context(), authCtx.UserID)
	if err != nil {
		respondError(w, apperrors.NewInternalError("Failed to load profile", err))
		return
	}
	if user == nil {
		respondError(w, apperrors.NewNotFoundError("User not found"))
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// updateTimezoneRequest is the payload for changing the preferred timezone
type updateTimezoneRequest struct {
	Timezone string `json:"timezone"`
}

// UpdateTimezone handles PUT /api/v1/auth/me/timezone
func (h *AuthHandler) UpdateTimezone(w http.ResponseWriter, r *http.Request) {
	authCtx := requireAuth(w, r)
	if authCtx == nil {
		return
	}

	var req updateTimezoneRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil || req.Timezone == "" {
		respondError(w, apperrors.NewValidationError("Unknown timezone", map[string]interface{}{"timezone": req.Timezone}))
		return
	}

	if err := h.users.UpdateTimezone(r.Context(), authCtx.UserID, req.Timezone); err != nil {
		respondError(w, apperrors.NewInternalError("Failed to update timezone", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"timezone": req.Timezone})
}
