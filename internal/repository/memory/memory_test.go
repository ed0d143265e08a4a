package memory_test

import (
	"context"
	"testing"
	"time"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedSource(t *testing.T) {
	t.Run("Should return copies of the sample profiles", func(t *testing.T) {
		source := memory.NewSeedSource(memory.SampleProfiles(), 0)
		first, err := source.FetchProfiles(context.Background())
		require.NoError(t, err)
		require.Len(t, first, 6)

		first[0].Interests[0] = "mutated"
		second, _ := source.FetchProfiles(context.Background())
		assert.Equal(t, "Design", second[0].Interests[0])
	})

	t.Run("Should honour cancellation during the delay", func(t *testing.T) {
		source := memory.NewSeedSource(memory.SampleProfiles(), time.Hour)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := source.FetchProfiles(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSampleProfilesHaveUniqueIDs(t *testing.T) {
	seen := map[int64]bool{}
	for _, p := range memory.SampleProfiles() {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
		assert.True(t, p.Coordinates.Valid())
	}
}

func TestDelayedCommitter(t *testing.T) {
	committer := memory.NewDelayedCommitter(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, committer.Commit(ctx, domain.ProfileMutation{Kind: domain.MutationAdd}), context.Canceled)

	assert.NoError(t, memory.NewDelayedCommitter(0).Commit(context.Background(), domain.ProfileMutation{Kind: domain.MutationRemove}))
}

func TestCredentialRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCredentialRepository(domain.Credential{
		User:         domain.User{ID: "u1", Email: "Admin@Example.com"},
		PasswordHash: "hash",
	})

	cred, err := repo.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", cred.User.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.Create(ctx, domain.Credential{User: domain.User{ID: "u2", Email: "ADMIN@example.com"}})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}
