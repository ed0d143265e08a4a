package usecase_test

import (
	"context"
	"sync"
	"testing"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/internal/repository/memory"
	"profile-mapper-backend/internal/usecase"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock collaborators

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, session *domain.Session) error {
	return m.Called(ctx, session).Error(0)
}

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Get(ctx context.Context, owner string) (string, error) {
	args := m.Called(ctx, owner)
	return args.String(0), args.Error(1)
}

func (m *MockTokenStore) Set(ctx context.Context, owner, token string) error {
	return m.Called(ctx, owner, token).Error(0)
}

func (m *MockTokenStore) Clear(ctx context.Context, owner string) error {
	return m.Called(ctx, owner).Error(0)
}

// gatedCommitter blocks every commit until release is closed.
type gatedCommitter struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedCommitter() *gatedCommitter {
	return &gatedCommitter{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gatedCommitter) Commit(ctx context.Context, mutation domain.ProfileMutation) error {
	g.started <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedCommitter) Release() {
	g.once.Do(func() { close(g.release) })
}

// failingSource always fails the initial load.
type failingSource struct{ err error }

func (f failingSource) FetchProfiles(ctx context.Context) ([]domain.Profile, error) {
	return nil, f.err
}

// newLoadedCatalog returns a catalog holding the sample profiles with instant commits.
func newLoadedCatalog(t *testing.T) *usecase.Catalog {
	t.Helper()
	catalog := usecase.NewCatalog(memory.NewSeedSource(memory.SampleProfiles(), 0), memory.NewDelayedCommitter(0))
	require.NoError(t, catalog.Load(context.Background()))
	return catalog
}

func validInput(name string) domain.ProfileInput {
	return domain.ProfileInput{
		Name:        name,
		Photo:       "https://example.com/photo.jpg",
		Description: "Backend engineer",
		Address:     "1 Main St, Springfield",
		Coordinates: domain.Coordinates{-73.9857, 40.7484},
		Interests:   []string{"Go"},
	}
}
