package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/internal/usecase"
	"profile-mapper-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testSession(email string) *domain.Session {
	return &domain.Session{
		AccessToken: "token-" + email,
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        domain.User{ID: "user-" + email, Email: email},
	}
}

func signIn(t *testing.T, gate domain.AuthGate, email string) *domain.Session {
	t.Helper()
	s, err := gate.SignIn(context.Background(), email, "secret")
	require.NoError(t, err)
	return s
}

func TestAuthGateSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reject empty credentials without calling the provider", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		gate := usecase.NewAuthGate(provider)

		_, err := gate.SignIn(ctx, "a@b.co", "")
		assert.ErrorIs(t, err, domain.ErrMissingCredentials)
		assert.Equal(t, "Please enter both email and password", err.Error())
		assert.Equal(t, domain.AuthUnauthenticated, gate.State())

		_, err = gate.SignIn(ctx, "  ", "secret")
		assert.ErrorIs(t, err, domain.ErrMissingCredentials)
		provider.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should become authenticated on success", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("SignIn", mock.Anything, "a@b.co", "secret").Return(testSession("a@b.co"), nil)
		gate := usecase.NewAuthGate(provider)

		signIn(t, gate, "a@b.co")
		assert.Equal(t, domain.AuthAuthenticated, gate.State())
		assert.Equal(t, "a@b.co", gate.Session().User.Email)
		assert.NoError(t, gate.LastError())
	})

	t.Run("Should surface provider errors and stay unauthenticated", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("SignIn", mock.Anything, "a@b.co", "wrong").Return(nil, apperror.Unauthorized("Invalid login credentials"))
		gate := usecase.NewAuthGate(provider)

		_, err := gate.SignIn(ctx, "a@b.co", "wrong")
		require.Error(t, err)
		assert.Equal(t, domain.AuthUnauthenticated, gate.State())
		assert.Nil(t, gate.Session())
		assert.Equal(t, "Invalid login credentials", gate.LastError().Error())
	})

	t.Run("Should report authenticating while the provider call is in flight", func(t *testing.T) {
		release := make(chan struct{})
		entered := make(chan struct{})
		provider := new(MockIdentityProvider)
		provider.On("SignIn", mock.Anything, "a@b.co", "secret").
			Run(func(mock.Arguments) {
				close(entered)
				<-release
			}).
			Return(testSession("a@b.co"), nil)
		gate := usecase.NewAuthGate(provider)

		done := make(chan error, 1)
		go func() {
			_, err := gate.SignIn(ctx, "a@b.co", "secret")
			done <- err
		}()
		<-entered
		assert.Equal(t, domain.AuthAuthenticating, gate.State())
		close(release)
		require.NoError(t, <-done)
		assert.Equal(t, domain.AuthAuthenticated, gate.State())
	})
}

func TestAuthGateSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("Should report pending confirmation when no session is returned", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("SignUp", mock.Anything, "new@b.co", "secret").Return(nil, nil)
		gate := usecase.NewAuthGate(provider)

		_, err := gate.SignUp(ctx, "new@b.co", "secret")
		assert.ErrorIs(t, err, domain.ErrConfirmationPending)
		assert.Equal(t, domain.AuthUnauthenticated, gate.State())
	})

	t.Run("Should sign in when the provider returns a session", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("SignUp", mock.Anything, "new@b.co", "secret").Return(testSession("new@b.co"), nil)
		gate := usecase.NewAuthGate(provider)

		s, err := gate.SignUp(ctx, "new@b.co", "secret")
		require.NoError(t, err)
		assert.Equal(t, "new@b.co", s.User.Email)
		assert.Equal(t, domain.AuthAuthenticated, gate.State())
	})
}

func TestAuthGateSignOut(t *testing.T) {
	ctx := context.Background()

	t.Run("Should end unauthenticated even when the provider fails", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		provider.On("SignIn", mock.Anything, "a@b.co", "secret").Return(testSession("a@b.co"), nil)
		provider.On("SignOut", mock.Anything, mock.Anything).Return(errors.New("network down"))
		gate := usecase.NewAuthGate(provider)
		signIn(t, gate, "a@b.co")

		gate.SignOut(ctx)
		assert.Equal(t, domain.AuthUnauthenticated, gate.State())
		assert.Nil(t, gate.Session())
		provider.AssertCalled(t, "SignOut", mock.Anything, mock.Anything)
	})

	t.Run("Should not call the provider without a session", func(t *testing.T) {
		provider := new(MockIdentityProvider)
		gate := usecase.NewAuthGate(provider)
		gate.SignOut(ctx)
		provider.AssertNotCalled(t, "SignOut", mock.Anything, mock.Anything)
	})
}

func TestAuthGateRestore(t *testing.T) {
	gate := usecase.NewAuthGate(new(MockIdentityProvider))

	expired := testSession("old@b.co")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	gate.Restore(expired)
	assert.Equal(t, domain.AuthUnauthenticated, gate.State())

	gate.Restore(testSession("a@b.co"))
	assert.Equal(t, domain.AuthAuthenticated, gate.State())
}

// quietProvider accepts every sign-out without recording calls.
type quietProvider struct{ MockIdentityProvider }

func (*quietProvider) SignOut(context.Context, *domain.Session) error { return nil }

func TestAuthGateSessionWhileSigningOut(t *testing.T) {
	ctx := context.Background()
	gate := usecase.NewAuthGate(&quietProvider{})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				gate.Restore(testSession("a@b.co"))
				gate.SignOut(ctx)
			}
		}
	}()

	assert.NotPanics(t, func() {
		for i := 0; i < 200000; i++ {
			if s := gate.Session(); s != nil {
				assert.Equal(t, "a@b.co", s.User.Email)
			}
		}
	})
	close(stop)
	<-done
	assert.Nil(t, gate.Session())
}

func TestAuthGateSignInReturnsCopy(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("SignIn", mock.Anything, "a@b.co", "secret").Return(testSession("a@b.co"), nil)
	gate := usecase.NewAuthGate(provider)

	s := signIn(t, gate, "a@b.co")
	s.User.Email = "changed@b.co"
	assert.Equal(t, "a@b.co", gate.Session().User.Email)
}
