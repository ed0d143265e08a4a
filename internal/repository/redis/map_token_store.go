package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"profile-mapper-backend/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

type mapTokenStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewMapTokenStore persists map tokens under "mapbox_token:<owner>".
// A zero ttl keeps tokens until they are cleared.
func NewMapTokenStore(client *goredis.Client, ttl time.Duration) domain.MapTokenStore {
	return &mapTokenStore{client: client, ttl: ttl}
}

func tokenKey(owner string) string {
	return fmt.Sprintf("%s:%s", domain.MapTokenKey, owner)
}

func (s *mapTokenStore) Get(ctx context.Context, owner string) (string, error) {
	token, err := s.client.Get(ctx, tokenKey(owner)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get map token: %w", err)
	}
	return token, nil
}

func (s *mapTokenStore) Set(ctx context.Context, owner, token string) error {
	if err := s.client.Set(ctx, tokenKey(owner), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set map token: %w", err)
	}
	return nil
}

func (s *mapTokenStore) Clear(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, tokenKey(owner)).Err(); err != nil {
		return fmt.Errorf("redis clear map token: %w", err)
	}
	return nil
}
