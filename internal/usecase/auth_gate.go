package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/pkg/logger"
)

// authGate tracks one client's sign-in state around an IdentityProvider.
type authGate struct {
	provider domain.IdentityProvider
	now      func() time.Time

	mu      sync.RWMutex
	state   domain.AuthState
	session *domain.Session
	lastErr error
}

func NewAuthGate(provider domain.IdentityProvider) domain.AuthGate {
	return &authGate{
		provider: provider,
		now:      time.Now,
		state:    domain.AuthUnauthenticated,
	}
}

// State reports unauthenticated once the held session has expired.
func (g *authGate) State() domain.AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expireLocked()
	return g.state
}

// Session returns a copy of the live session, or nil.
func (g *authGate) Session() *domain.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expireLocked()
	if g.state != domain.AuthAuthenticated || g.session == nil {
		return nil
	}
	s := *g.session
	return &s
}

// expireLocked drops an expired session. g.mu must be held.
func (g *authGate) expireLocked() {
	if g.state != domain.AuthAuthenticated {
		return
	}
	if g.session == nil || g.session.Expired(g.now()) {
		if g.session != nil {
			logger.Log.Info("Session expired", "user_id", g.session.User.ID)
		}
		g.state = domain.AuthUnauthenticated
		g.session = nil
	}
}

func (g *authGate) LastError() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastErr
}

func (g *authGate) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	return g.authenticate(ctx, email, password, g.provider.SignIn)
}

func (g *authGate) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	return g.authenticate(ctx, email, password, g.provider.SignUp)
}

type credentialCall func(ctx context.Context, email, password string) (*domain.Session, error)

func (g *authGate) authenticate(ctx context.Context, email, password string, call credentialCall) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		g.fail(domain.ErrMissingCredentials)
		return nil, domain.ErrMissingCredentials
	}

	g.mu.Lock()
	g.state = domain.AuthAuthenticating
	g.lastErr = nil
	g.mu.Unlock()

	session, err := call(ctx, email, password)
	if err == nil && session == nil {
		err = domain.ErrConfirmationPending
	}
	if err != nil {
		if !errors.Is(err, domain.ErrConfirmationPending) {
			logger.Log.Warn("Authentication failed", "email", email, "error", err)
		}
		g.fail(err)
		return nil, err
	}

	held := *session
	g.mu.Lock()
	g.state = domain.AuthAuthenticated
	g.session = &held
	g.mu.Unlock()
	logger.Log.Info("User signed in", "user_id", session.User.ID, "email", session.User.Email)
	out := held
	return &out, nil
}

func (g *authGate) fail(err error) {
	g.mu.Lock()
	g.state = domain.AuthUnauthenticated
	g.session = nil
	g.lastErr = err
	g.mu.Unlock()
}

// SignOut always leaves the gate unauthenticated.
func (g *authGate) SignOut(ctx context.Context) {
	g.mu.Lock()
	session := g.session
	g.state = domain.AuthUnauthenticated
	g.session = nil
	g.lastErr = nil
	g.mu.Unlock()

	if session == nil {
		return
	}
	if err := g.provider.SignOut(ctx, session); err != nil {
		logger.Log.Warn("Provider sign-out failed", "user_id", session.User.ID, "error", err)
	}
}

// Restore adopts a session that was verified outside the gate, e.g. a bearer token.
func (g *authGate) Restore(session *domain.Session) {
	if session == nil || session.Expired(g.now()) {
		return
	}
	s := *session
	g.mu.Lock()
	g.state = domain.AuthAuthenticated
	g.session = &s
	g.lastErr = nil
	g.mu.Unlock()
}
