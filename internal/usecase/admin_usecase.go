package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/pkg/apperror"
	"profile-mapper-backend/pkg/logger"
	"profile-mapper-backend/pkg/validation"
)

type adminUsecase struct {
	// pending holds one entry per session with a submission in flight
	pending sync.Map
}

func NewAdminUsecase() domain.AdminUsecase {
	return &adminUsecase{}
}

// NewForm returns the blank add form: no interests yet, but one empty row to type into.
func (u *adminUsecase) NewForm() domain.ProfileInput {
	return domain.ProfileInput{Interests: []string{""}}
}

// EditForm loads the profile behind /admin/edit/:id.
func (u *adminUsecase) EditForm(store domain.ProfileStore, id int64) (domain.Profile, error) {
	if store.Loading() {
		return domain.Profile{}, apperror.Unavailable(domain.ErrStoreLoading.Error())
	}
	p, ok := store.Get(id)
	if !ok {
		return domain.Profile{}, apperror.NotFound("Profile not found")
	}
	p.Interests = p.FormInterests()
	return p, nil
}

// Submit validates p and adds or updates it. Only one submission per session
// may be in flight; a concurrent one is rejected rather than queued.
func (u *adminUsecase) Submit(ctx context.Context, sessionID string, store domain.ProfileStore, mode domain.FormMode, p domain.Profile) (domain.Profile, error) {
	if _, busy := u.pending.LoadOrStore(sessionID, struct{}{}); busy {
		return domain.Profile{}, apperror.Conflict(domain.ErrSubmissionPending.Error())
	}
	defer u.pending.Delete(sessionID)

	if fields := validation.ValidateProfile(p.ProfileInput); len(fields) > 0 {
		return domain.Profile{}, apperror.Validation(fields)
	}

	in := p.ProfileInput.CompactInterests()

	var (
		saved domain.Profile
		err   error
	)
	switch mode {
	case domain.FormModeAdd:
		saved, err = store.Add(ctx, in)
	case domain.FormModeEdit:
		saved, err = store.Update(ctx, domain.Profile{ID: p.ID, ProfileInput: in})
	default:
		return domain.Profile{}, apperror.BadRequest("Unknown form mode")
	}
	if err != nil {
		return domain.Profile{}, mapStoreError(err)
	}

	logger.Log.Info("Profile saved", "mode", string(mode), "profile_id", saved.ID, "session_id", sessionID)
	return saved, nil
}

// Delete removes id; an id that is already gone is not an error.
func (u *adminUsecase) Delete(ctx context.Context, store domain.ProfileStore, id int64) error {
	if err := store.Remove(ctx, id); err != nil {
		return mapStoreError(err)
	}
	logger.Log.Info("Profile removed", "profile_id", id)
	return nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return apperror.NotFound("Profile not found")
	case errors.Is(err, domain.ErrStoreLoading):
		return apperror.Unavailable(domain.ErrStoreLoading.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperror.New(http.StatusRequestTimeout, "Request cancelled", err)
	}
	return apperror.Internal(err)
}
