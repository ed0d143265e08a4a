package memory

import (
	"context"
	"sync"

	"profile-mapper-backend/internal/domain"
)

// mapTokenStore keeps map tokens in process memory when Redis is not configured.
type mapTokenStore struct {
	tokens sync.Map
}

func NewMapTokenStore() domain.MapTokenStore {
	return &mapTokenStore{}
}

func (s *mapTokenStore) Get(ctx context.Context, owner string) (string, error) {
	v, ok := s.tokens.Load(owner)
	if !ok {
		return "", nil
	}
	return v.(string), nil
}

func (s *mapTokenStore) Set(ctx context.Context, owner, token string) error {
	s.tokens.Store(owner, token)
	return nil
}

func (s *mapTokenStore) Clear(ctx context.Context, owner string) error {
	s.tokens.Delete(owner)
	return nil
}
