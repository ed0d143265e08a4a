package usecase

import (
	"context"
	"sync"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/pkg/logger"
)

// CatalogEvent is published to subscribers after a mutation has been applied.
type CatalogEvent struct {
	Kind    domain.MutationKind
	Profile domain.Profile
}

// Catalog owns the shared profile list and assigns ids.
// Mutations are serialised by writeMu, which is held across the commit so two
// adds can never observe the same max id. Readers only take mu.
type Catalog struct {
	source    domain.ProfileSource
	committer domain.ProfileCommitter

	writeMu sync.Mutex

	mu           sync.RWMutex
	profiles     []domain.Profile
	loaded       bool
	loadErr      error
	listeners    map[int]func(CatalogEvent)
	nextListener int
}

func NewCatalog(source domain.ProfileSource, committer domain.ProfileCommitter) *Catalog {
	return &Catalog{
		source:    source,
		committer: committer,
		listeners: make(map[int]func(CatalogEvent)),
	}
}

// Load fetches the initial profile list once. A cancelled load is discarded and
// leaves the catalog loading; a failed load leaves it loaded and empty.
func (c *Catalog) Load(ctx context.Context) error {
	profiles, err := c.source.FetchProfiles(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Log.Warn("Profile load discarded", "error", ctxErr)
		return ctxErr
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}
	c.loaded = true
	if err != nil {
		c.loadErr = err
		c.profiles = nil
		logger.Log.Error("Failed to load profiles", "error", err)
		return err
	}

	c.profiles = make([]domain.Profile, 0, len(profiles))
	for _, p := range profiles {
		c.profiles = append(c.profiles, p.Clone())
	}
	logger.Log.Info("Profiles loaded", "count", len(c.profiles))
	return nil
}

func (c *Catalog) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.loaded
}

// LoadError returns the error of a failed initial load, if any.
func (c *Catalog) LoadError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Snapshot returns a deep copy of the profiles in insertion order.
func (c *Catalog) Snapshot() []domain.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Profile, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, p.Clone())
	}
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.profiles)
}

func (c *Catalog) Get(id int64) (domain.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.profiles[i].Clone(), true
	}
	return domain.Profile{}, false
}

// Add assigns the next id, commits and appends the profile.
func (c *Catalog) Add(ctx context.Context, in domain.ProfileInput) (domain.Profile, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	if !c.loaded {
		c.mu.RUnlock()
		return domain.Profile{}, domain.ErrStoreLoading
	}
	var maxID int64
	for _, p := range c.profiles {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	c.mu.RUnlock()

	created := domain.Profile{ID: maxID + 1, ProfileInput: in.Clone()}
	if err := c.committer.Commit(ctx, domain.ProfileMutation{Kind: domain.MutationAdd, Profile: created.Clone()}); err != nil {
		return domain.Profile{}, err
	}

	c.mu.Lock()
	c.profiles = append(c.profiles, created.Clone())
	c.mu.Unlock()

	c.publish(CatalogEvent{Kind: domain.MutationAdd, Profile: created})
	return created.Clone(), nil
}

// Update replaces the profile with the same id, keeping its position.
func (c *Catalog) Update(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	loaded, idx := c.loaded, c.indexOf(p.ID)
	c.mu.RUnlock()
	if !loaded {
		return domain.Profile{}, domain.ErrStoreLoading
	}
	if idx < 0 {
		return domain.Profile{}, domain.ErrNotFound
	}

	updated := p.Clone()
	if err := c.committer.Commit(ctx, domain.ProfileMutation{Kind: domain.MutationUpdate, Profile: updated.Clone()}); err != nil {
		return domain.Profile{}, err
	}

	c.mu.Lock()
	c.profiles[idx] = updated.Clone()
	c.mu.Unlock()

	c.publish(CatalogEvent{Kind: domain.MutationUpdate, Profile: updated})
	return updated.Clone(), nil
}

// Remove deletes the profile with id. Removing an absent id is a no-op.
func (c *Catalog) Remove(ctx context.Context, id int64) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	loaded, idx := c.loaded, c.indexOf(id)
	var removed domain.Profile
	if idx >= 0 {
		removed = c.profiles[idx].Clone()
	}
	c.mu.RUnlock()
	if !loaded {
		return domain.ErrStoreLoading
	}
	if idx < 0 {
		logger.Log.Debug("Remove of unknown profile ignored", "profile_id", id)
		return nil
	}

	if err := c.committer.Commit(ctx, domain.ProfileMutation{Kind: domain.MutationRemove, Profile: removed.Clone()}); err != nil {
		return err
	}

	c.mu.Lock()
	c.profiles = append(c.profiles[:idx:idx], c.profiles[idx+1:]...)
	c.mu.Unlock()

	c.publish(CatalogEvent{Kind: domain.MutationRemove, Profile: removed})
	return nil
}

// Subscribe registers fn for catalog events and returns the unsubscribe func.
func (c *Catalog) Subscribe(fn func(CatalogEvent)) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Catalog) publish(ev CatalogEvent) {
	c.mu.RLock()
	listeners := make([]func(CatalogEvent), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn(CatalogEvent{Kind: ev.Kind, Profile: ev.Profile.Clone()})
	}
}

// indexOf must be called with mu held.
func (c *Catalog) indexOf(id int64) int {
	for i, p := range c.profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}
