package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"patio/internal/domain"
	"patio/internal/service"
	apperrors "patio/pkg/errors"
	"patio/pkg/logger"
)

// Service implements service.AuthService. Identity is delegated to Google;
// this service verifies Google credentials and manages Patio's own session
// JWTs.
type Service struct {
	clientID     string
	oauthConfig  *oauth2.Config
	sessionKey   []byte
	sessionTTL   time.Duration
	logger       *logger.Logger

	// validate is swappable in tests
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewService creates a new auth service
func NewService(clientID, clientSecret, redirectURL, sessionSecret string, sessionTTLHours int, log *logger.Logger) service.AuthService {
	return &Service{
		clientID: clientID,
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		sessionKey: []byte(sessionSecret),
		sessionTTL: time.Duration(sessionTTLHours) * time.Hour,
		logger:     log,
		validate:   idtoken.Validate,
	}
}

func profileFromPayload(payload *idtoken.Payload) *domain.UserProfile {
	claimString := func(key string) string {
		if v, ok := payload.Claims[key].(string); ok {
			return v
		}
		return ""
	}
	emailVerified, _ := payload.Claims["email_verified"].(bool)

	return &domain.UserProfile{
		Sub:           payload.Subject,
		Name:          claimString("name"),
		Picture:       claimString("picture"),
		Email:         claimString("email"),
		EmailVerified: emailVerified,
	}
}

// VerifyGoogleCredential validates a Google ID token and returns the profile
func (s *Service) VerifyGoogleCredential(ctx context.Context, credential string) (*domain.UserProfile, error) {
	if credential == "" {
		return nil, apperrors.NewAuthenticationError("Credential is required")
	}

	payload, err := s.validate(ctx, credential, s.clientID)
	if err != nil {
		s.logger.WithError(err).Error("Google ID token validation failed")
		return nil, apperrors.NewAuthenticationError("Invalid or expired Google credential")
	}

	profile := profileFromPayload(payload)
	if profile.Email == "" {
		return nil, apperrors.NewAuthenticationError("Credential carries no email claim")
	}

	s.logger.WithField("sub", profile.Sub).Debug("Google credential verified")
	return profile, nil
}

// ExchangeCode exchanges an OAuth authorization code for a verified profile
func (s *Service) ExchangeCode(ctx context.Context, code string) (*domain.UserProfile, error) {
	if code == "" {
		return nil, apperrors.NewAuthenticationError("Authorization code is required")
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		s.logger.WithError(err).Error("OAuth code exchange failed")
		return nil, apperrors.NewExternalError("Failed to exchange authorization code", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, apperrors.NewAuthenticationError("Token response carries no ID token")
	}

	return s.VerifyGoogleCredential(ctx, rawIDToken)
}

// sessionClaims are the claims carried by a Patio session JWT
type sessionClaims struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Timezone string `json:"tz,omitempty"`
	jwt.RegisteredClaims
}

// IssueSessionToken creates a signed session JWT for the user
func (s *Service) IssueSessionToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email:    user.Email,
		Name:     user.Name,
		Timezone: user.Timezone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    "patio",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.sessionKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// SessionTTL returns the lifetime of issued session tokens
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// ValidateSessionToken parses and verifies a session JWT
func (s *Service) ValidateSessionToken(ctx context.Context, tokenString string) (*domain.AuthContext, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.sessionKey, nil
	}, jwt.WithIssuer("patio"), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return nil, apperrors.NewAuthenticationError("Invalid or expired session")
	}

	return &domain.AuthContext{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Timezone: claims.Timezone,
	}, nil
}
