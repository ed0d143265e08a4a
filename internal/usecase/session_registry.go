package usecase

import (
	"context"
	"sync"
	"time"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ClientSession is the per-client state behind a session cookie.
type ClientSession struct {
	ID    string
	Gate  domain.AuthGate
	Store domain.ProfileStore

	lastSeen time.Time
}

// SessionRegistry maps session ids to client sessions and evicts idle ones.
type SessionRegistry struct {
	catalog  *Catalog
	provider domain.IdentityProvider
	idleTTL  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*ClientSession

	cron *cron.Cron
}

func NewSessionRegistry(catalog *Catalog, provider domain.IdentityProvider, idleTTL time.Duration) *SessionRegistry {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	return &SessionRegistry{
		catalog:  catalog,
		provider: provider,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*ClientSession),
	}
}

// Resolve returns the session for id, creating a fresh one when id is unknown or empty.
// The boolean reports whether a new session was created.
func (r *SessionRegistry) Resolve(id string) (*ClientSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok && id != "" {
		s.lastSeen = r.now()
		return s, false
	}

	s := &ClientSession{
		ID:       uuid.NewString(),
		Gate:     NewAuthGate(r.provider),
		Store:    NewProfileStore(r.catalog),
		lastSeen: r.now(),
	}
	r.sessions[s.ID] = s
	logger.Log.Debug("Session created", "session_id", s.ID)
	return s, true
}

// Ephemeral builds a session that is never registered. The caller must close
// its Store once the request is done.
func (r *SessionRegistry) Ephemeral() *ClientSession {
	return &ClientSession{
		ID:       uuid.NewString(),
		Gate:     NewAuthGate(r.provider),
		Store:    NewProfileStore(r.catalog),
		lastSeen: r.now(),
	}
}

func (r *SessionRegistry) Get(id string) (*ClientSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		s.lastSeen = r.now()
	}
	return s, ok
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle closes and drops every session not seen for longer than the idle TTL.
func (r *SessionRegistry) EvictIdle() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*ClientSession
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Store.Close()
	}
	if len(idle) > 0 {
		logger.Log.Info("Idle sessions evicted", "count", len(idle))
	}
	return len(idle)
}

// Start schedules EvictIdle every minute.
func (r *SessionRegistry) Start() error {
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", func() { r.EvictIdle() }); err != nil {
		logger.Log.Error("Failed to schedule session eviction", "error", err)
		return err
	}
	r.cron = c
	c.Start()
	logger.Log.Info("Session eviction scheduled", "idle_ttl", r.idleTTL.String())
	return nil
}

// Stop halts the eviction job and closes every remaining session.
func (r *SessionRegistry) Stop(ctx context.Context) {
	if r.cron != nil {
		select {
		case <-r.cron.Stop().Done():
		case <-ctx.Done():
		}
	}

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*ClientSession)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Store.Close()
	}
}
