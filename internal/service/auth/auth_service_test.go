package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"

	"patio/internal/domain"
	"patio/pkg/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)

	svc := NewService("client-id", "client-secret", "http://localhost/callback", "test-session-secret", 24, log)
	return svc.(*Service)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)

	user := &domain.User{
		ID:       "google-sub-123",
		Email:    "dev@example.com",
		Name:     "Dev Example",
		Timezone: "Europe/Berlin",
	}

	token, err := svc.IssueSessionToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	authCtx, err := svc.ValidateSessionToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authCtx.UserID)
	assert.Equal(t, user.Email, authCtx.Email)
	assert.Equal(t, user.Name, authCtx.Name)
	assert.Equal(t, user.Timezone, authCtx.Timezone)
}

func TestValidateSessionTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ValidateSessionToken(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}

func TestValidateSessionTokenRejectsWrongKey(t *testing.T) {
	issuer := newTestService(t)
	token, err := issuer.IssueSessionToken(&domain.User{ID: "u1", Email: "a@b.c"})
	require.NoError(t, err)

	verifier := newTestService(t)
	verifier.sessionKey = []byte("a-different-secret")

	_, err = verifier.ValidateSessionToken(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyGoogleCredential(t *testing.T) {
	t.Run("valid token yields profile", func(t *testing.T) {
		svc := newTestService(t)
		svc.validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			assert.Equal(t, "client-id", audience)
			return &idtoken.Payload{
				Subject: "sub-42",
				Expires: time.Now().Add(time.Hour).Unix(),
				Claims: map[string]interface{}{
					"email":          "dev@example.com",
					"email_verified": true,
					"name":           "Dev Example",
					"picture":        "https://example.com/p.png",
				},
			}, nil
		}

		profile, err := svc.VerifyGoogleCredential(context.Background(), "fake-id-token")
		require.NoError(t, err)
		assert.Equal(t, "sub-42", profile.Sub)
		assert.Equal(t, "dev@example.com", profile.Email)
		assert.True(t, profile.EmailVerified)
	})

	t.Run("validation failure is an authentication error", func(t *testing.T) {
		svc := newTestService(t)
		svc.validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			return nil, errors.New("expired")
		}

		_, err := svc.VerifyGoogleCredential(context.Background(), "stale")
		assert.Error(t, err)
	})

	t.Run("empty credential rejected without calling Google", func(t *testing.T) {
		svc := newTestService(t)
		svc.validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			t.Fatal("validate must not be called for an empty credential")
			return nil, nil
		}

		_, err := svc.VerifyGoogleCredential(context.Background(), "")
		assert.Error(t, err)
	})
}
