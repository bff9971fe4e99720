package service

import (
	"context"
	"time"

	"patio/internal/domain"
)

// AuthService handles identity verification and session tokens. Sign-in is
// delegated to Google; Patio only verifies the resulting credential and
// manages its own session JWTs.
type AuthService interface {
	// VerifyGoogleCredential validates a Google ID token and returns the
	// user's profile
	VerifyGoogleCredential(ctx context.Context, credential string) (*domain.UserProfile, error)

	// ExchangeCode exchanges an OAuth authorization code for a verified
	// profile
	ExchangeCode(ctx context.Context, code string) (*domain.UserProfile, error)

	// IssueSessionToken creates a signed session JWT for the user
	IssueSessionToken(user *domain.User) (string, error)

	// ValidateSessionToken parses and verifies a session JWT
	ValidateSessionToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// SessionTTL returns the lifetime of issued session tokens
	SessionTTL() time.Duration
}

// Services aggregates the service layer for dependency injection
type Services struct {
	Auth  AuthService
	Teams *TeamService
	Moods *MoodService
	Stats *StatsService
}
