package usecase

import (
	"context"
	"sync"

	"profile-mapper-backend/internal/domain"
)

// profileStore is one session's view of the catalog: it owns the search term
// and the map selection, while the list itself lives in the shared Catalog.
type profileStore struct {
	catalog *Catalog

	mu          sync.Mutex
	term        string
	selected    *domain.Profile
	unsubscribe func()
}

func NewProfileStore(catalog *Catalog) domain.ProfileStore {
	s := &profileStore{catalog: catalog}
	s.unsubscribe = catalog.Subscribe(s.onCatalogEvent)
	return s
}

func (s *profileStore) Loading() bool {
	return s.catalog.Loading()
}

func (s *profileStore) ListAll() []domain.Profile {
	return s.catalog.Snapshot()
}

func (s *profileStore) Get(id int64) (domain.Profile, bool) {
	return s.catalog.Get(id)
}

func (s *profileStore) SetSearchTerm(term string) {
	s.mu.Lock()
	s.term = NormalizeSearchTerm(term)
	s.mu.Unlock()
}

func (s *profileStore) SearchTerm() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term
}

// Filtered is recomputed from the current catalog snapshot on every call, so it
// always reflects the latest completed mutation and search term.
func (s *profileStore) Filtered() []domain.Profile {
	return FilterProfiles(s.catalog.Snapshot(), s.SearchTerm())
}

func (s *profileStore) Add(ctx context.Context, in domain.ProfileInput) (domain.Profile, error) {
	return s.catalog.Add(ctx, in)
}

func (s *profileStore) Update(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	return s.catalog.Update(ctx, p)
}

func (s *profileStore) Remove(ctx context.Context, id int64) error {
	return s.catalog.Remove(ctx, id)
}

// Select does not check that p is still in the catalog.
func (s *profileStore) Select(p domain.Profile) {
	selected := p.Clone()
	s.mu.Lock()
	s.selected = &selected
	s.mu.Unlock()
}

func (s *profileStore) Selected() (domain.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return domain.Profile{}, false
	}
	return s.selected.Clone(), true
}

func (s *profileStore) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

func (s *profileStore) Close() {
	s.unsubscribe()
}

func (s *profileStore) onCatalogEvent(ev CatalogEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil || s.selected.ID != ev.Profile.ID {
		return
	}
	switch ev.Kind {
	case domain.MutationUpdate:
		refreshed := ev.Profile.Clone()
		s.selected = &refreshed
	case domain.MutationRemove:
		s.selected = nil
	}
}
