package memory

import (
	"context"
	"time"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/pkg/logger"
)

type delayedCommitter struct {
	latency time.Duration
}

// NewDelayedCommitter acknowledges every mutation after a fixed latency.
// Nothing is persisted; the catalog applies the change in memory once the commit returns.
func NewDelayedCommitter(latency time.Duration) domain.ProfileCommitter {
	return &delayedCommitter{latency: latency}
}

func (c *delayedCommitter) Commit(ctx context.Context, mutation domain.ProfileMutation) error {
	if err := wait(ctx, c.latency); err != nil {
		return err
	}
	logger.Log.Debug("Profile mutation committed", "kind", mutation.Kind, "profile_id", mutation.Profile.ID)
	return nil
}
