package memory

import (
	"context"
	"strings"
	"sync"

	"profile-mapper-backend/internal/domain"
)

// credentialRepo stores local sign-in credentials keyed by lowercase email.
type credentialRepo struct {
	mu    sync.RWMutex
	users map[string]domain.Credential
}

func NewCredentialRepository(seed ...domain.Credential) domain.CredentialRepository {
	r := &credentialRepo{users: make(map[string]domain.Credential)}
	for _, cred := range seed {
		r.users[strings.ToLower(cred.User.Email)] = cred
	}
	return r
}

func (r *credentialRepo) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cred, nil
}

// Create stores cred unless the email is already registered.
func (r *credentialRepo) Create(ctx context.Context, cred domain.Credential) error {
	key := strings.ToLower(cred.User.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[key]; exists {
		return domain.ErrEmailTaken
	}
	r.users[key] = cred
	return nil
}
