package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/pkg/apperror"
	"profile-mapper-backend/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider signs users in against a CredentialRepository and issues
// HS256 session tokens. It stands in for Supabase in development and tests.
type LocalProvider struct {
	repo   domain.CredentialRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLocalProvider uses a random signing key when secret is empty, so tokens
// do not survive a restart.
func NewLocalProvider(repo domain.CredentialRepository, secret string, ttl time.Duration) *LocalProvider {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("failed to generate session signing key: %v", err))
		}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LocalProvider{repo: repo, secret: key, ttl: ttl, now: time.Now}
}

// Secret is the key sessions are signed with; the Verifier needs the same one.
func (p *LocalProvider) Secret() []byte {
	return p.secret
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	cred, err := p.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.Unauthorized(domain.ErrInvalidCredentials.Error())
		}
		return nil, apperror.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		logger.Log.Info("Local sign-in rejected", "email", email)
		return nil, apperror.Unauthorized(domain.ErrInvalidCredentials.Error())
	}

	session, err := issueToken(p.secret, cred.User, p.now(), p.ttl)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return session, nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	cred := domain.Credential{
		User:         domain.User{ID: uuid.NewString(), Email: email},
		PasswordHash: string(hash),
	}
	if err := p.repo.Create(ctx, cred); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, apperror.BadRequest(err.Error())
		}
		return nil, apperror.Internal(err)
	}
	logger.Log.Info("Local user registered", "user_id", cred.User.ID, "email", email)

	session, err := issueToken(p.secret, cred.User, p.now(), p.ttl)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return session, nil
}

// SignOut has nothing to revoke: local tokens simply expire.
func (p *LocalProvider) SignOut(ctx context.Context, session *domain.Session) error {
	return nil
}

// ParseLocalUsers reads "email:bcrypt-hash" pairs separated by commas.
// The user id is derived from the email so it is stable across restarts.
func ParseLocalUsers(raw string) ([]domain.Credential, error) {
	var creds []domain.Credential
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		email, hash, ok := strings.Cut(entry, ":")
		email = strings.TrimSpace(email)
		hash = strings.TrimSpace(hash)
		if !ok || email == "" || hash == "" {
			return nil, fmt.Errorf("invalid LOCAL_AUTH_USERS entry %q: want email:bcrypt-hash", entry)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid bcrypt hash for %s: %w", email, err)
		}
		creds = append(creds, domain.Credential{
			User: domain.User{
				ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(email))).String(),
				Email: email,
			},
			PasswordHash: hash,
		})
	}
	return creds, nil
}
