package domain

import (
	"context"
	"time"
)

type AuthState string

const (
	AuthUnauthenticated AuthState = "unauthenticated"
	AuthAuthenticating  AuthState = "authenticating"
	AuthAuthenticated   AuthState = "authenticated"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// IdentityProvider is the external sign-in service.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, session *Session) error
}

// TokenVerifier validates a bearer token presented by API clients.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Session, error)
}

// AdminPolicy decides whether an authenticated user may use admin routes.
type AdminPolicy interface {
	IsAdmin(ctx context.Context, user User) bool
}

// AuthGate holds one client's sign-in state.
type AuthGate interface {
	State() AuthState
	Session() *Session
	LastError() error
	// SignIn and SignUp return a copy of the session they established.
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context)
	Restore(session *Session)
}

// GuardOutcome is the route guard verdict for one request.
type GuardOutcome int

const (
	GuardAllow GuardOutcome = iota
	GuardLoading
	GuardRedirectSignIn
	GuardRedirectHome
)

type GuardDecision struct {
	Outcome    GuardOutcome
	RedirectTo string
}

// Credential is a locally registered user with its bcrypt password hash.
type Credential struct {
	User         User
	PasswordHash string
}

type CredentialRepository interface {
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	Create(ctx context.Context, cred Credential) error
}
