package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/internal/repository/memory"
	"profile-mapper-backend/pkg/apperror"
	"profile-mapper-backend/pkg/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	creds, err := auth.ParseLocalUsers("admin@example.com:" + string(hash))
	require.NoError(t, err)

	provider := auth.NewLocalProvider(memory.NewCredentialRepository(creds...), "test-secret", time.Hour)
	verifier := auth.NewVerifier(provider.Secret(), nil)

	t.Run("Should issue a verifiable session", func(t *testing.T) {
		session, err := provider.SignIn(ctx, "admin@example.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, "admin@example.com", session.User.Email)

		verified, err := verifier.Verify(ctx, session.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, verified.User.ID)
		assert.WithinDuration(t, session.ExpiresAt, verified.ExpiresAt, time.Second)
	})

	t.Run("Should reject a wrong password", func(t *testing.T) {
		_, err := provider.SignIn(ctx, "admin@example.com", "nope")
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("Should reject an unknown user", func(t *testing.T) {
		_, err := provider.SignIn(ctx, "ghost@example.com", "secret")
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("Should register new users once", func(t *testing.T) {
		session, err := provider.SignUp(ctx, "new@example.com", "pw")
		require.NoError(t, err)
		assert.NotEmpty(t, session.AccessToken)

		_, err = provider.SignIn(ctx, "new@example.com", "pw")
		assert.NoError(t, err)

		_, err = provider.SignUp(ctx, "new@example.com", "pw")
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	})
}

func TestParseLocalUsers(t *testing.T) {
	creds, err := auth.ParseLocalUsers("")
	require.NoError(t, err)
	assert.Empty(t, creds)

	_, err = auth.ParseLocalUsers("missing-hash")
	assert.Error(t, err)

	_, err = auth.ParseLocalUsers("a@b.co:not-bcrypt")
	assert.Error(t, err)

	hash, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	first, err := auth.ParseLocalUsers("a@b.co:" + string(hash))
	require.NoError(t, err)
	second, _ := auth.ParseLocalUsers("A@B.co:" + string(hash))
	assert.Equal(t, first[0].User.ID, second[0].User.ID)
}

func TestVerifier(t *testing.T) {
	ctx := context.Background()
	secret := []byte("shared")
	verifier := auth.NewVerifier(secret, nil)

	sign := func(claims jwt.MapClaims, key []byte) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	t.Run("Should reject an empty token", func(t *testing.T) {
		_, err := verifier.Verify(ctx, "")
		assert.Error(t, err)
	})

	t.Run("Should reject a foreign signature", func(t *testing.T) {
		_, err := verifier.Verify(ctx, sign(jwt.MapClaims{"sub": "u1"}, []byte("other")))
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("Should reject an expired token", func(t *testing.T) {
		token := sign(jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()}, secret)
		_, err := verifier.Verify(ctx, token)
		assert.Error(t, err)
	})

	t.Run("Should require a subject", func(t *testing.T) {
		_, err := verifier.Verify(ctx, sign(jwt.MapClaims{"email": "a@b.co"}, secret))
		assert.Error(t, err)
	})

	t.Run("Should read subject and email", func(t *testing.T) {
		session, err := verifier.Verify(ctx, sign(jwt.MapClaims{"sub": "u1", "email": "a@b.co"}, secret))
		require.NoError(t, err)
		assert.Equal(t, domain.User{ID: "u1", Email: "a@b.co"}, session.User)
	})
}

func TestSupabaseProvider(t *testing.T) {
	ctx := context.Background()

	newServer := func(t *testing.T, handler http.HandlerFunc) *auth.SupabaseProvider {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		return auth.NewSupabaseProvider(srv.URL, "anon-key")
	}

	t.Run("Should sign in with the password grant", func(t *testing.T) {
		provider := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/token", r.URL.Path)
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			assert.Equal(t, "anon-key", r.Header.Get("apikey"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "jwt",
				"expires_in":   3600,
				"user":         map[string]string{"id": "u1", "email": "a@b.co"},
			})
		})

		session, err := provider.SignIn(ctx, "a@b.co", "pw")
		require.NoError(t, err)
		assert.Equal(t, "jwt", session.AccessToken)
		assert.Equal(t, "u1", session.User.ID)
		assert.False(t, session.ExpiresAt.IsZero())
	})

	t.Run("Should surface the provider message on rejection", func(t *testing.T) {
		provider := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
		})

		_, err := provider.SignIn(ctx, "a@b.co", "pw")
		require.Error(t, err)
		assert.Equal(t, "Invalid login credentials", err.Error())
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("Should map server failures to an external service error", func(t *testing.T) {
		provider := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := provider.SignIn(ctx, "a@b.co", "pw")
		assert.Equal(t, http.StatusBadGateway, statusOf(t, err))
	})

	t.Run("Should report pending confirmation when sign-up returns no session", func(t *testing.T) {
		provider := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/signup", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "u1", "email": "a@b.co"})
		})

		session, err := provider.SignUp(ctx, "a@b.co", "pw")
		assert.Nil(t, session)
		assert.ErrorIs(t, err, domain.ErrConfirmationPending)
	})

	t.Run("Should send the access token on sign-out", func(t *testing.T) {
		provider := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/logout", r.URL.Path)
			assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		})

		assert.NoError(t, provider.SignOut(ctx, &domain.Session{AccessToken: "jwt"}))
	})
}
