package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/internal/repository/memory"
	"profile-mapper-backend/internal/usecase"
	"profile-mapper-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appCode(t *testing.T, err error) int {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestAdminSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("Should add a valid profile and drop blank interests", func(t *testing.T) {
		store := usecase.NewProfileStore(newLoadedCatalog(t))
		defer store.Close()
		uc := usecase.NewAdminUsecase()

		in := validInput("Nina Patel")
		in.Interests = []string{"Go", "", "Chess"}
		created, err := uc.Submit(ctx, "s1", store, domain.FormModeAdd, domain.Profile{ProfileInput: in})
		require.NoError(t, err)
		assert.Equal(t, int64(7), created.ID)
		assert.Equal(t, []string{"Go", "Chess"}, created.Interests)
	})

	t.Run("Should store no interests when only blanks were entered", func(t *testing.T) {
		store := usecase.NewProfileStore(newLoadedCatalog(t))
		defer store.Close()
		uc := usecase.NewAdminUsecase()

		in := validInput("Nina Patel")
		in.Interests = uc.NewForm().Interests
		created, err := uc.Submit(ctx, "s1", store, domain.FormModeAdd, domain.Profile{ProfileInput: in})
		require.NoError(t, err)
		assert.Empty(t, created.Interests)
	})

	t.Run("Should reject invalid input with field errors", func(t *testing.T) {
		store := usecase.NewProfileStore(newLoadedCatalog(t))
		defer store.Close()
		uc := usecase.NewAdminUsecase()

		in := validInput("  ")
		in.Contact.Email = "not-an-email"
		_, err := uc.Submit(ctx, "s1", store, domain.FormModeAdd, domain.Profile{ProfileInput: in})

		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, http.StatusUnprocessableEntity, appErr.Code)
		assert.Equal(t, map[string]string{
			"name":          "Name is required",
			"contact.email": "Invalid email format",
		}, appErr.Fields)
		assert.Len(t, store.ListAll(), 6)
	})

	t.Run("Should update an existing profile", func(t *testing.T) {
		store := usecase.NewProfileStore(newLoadedCatalog(t))
		defer store.Close()
		uc := usecase.NewAdminUsecase()

		form, err := uc.EditForm(store, 2)
		require.NoError(t, err)
		form.Position = "CTO"
		form.Contact.Website = "https://michaelchen.example.com"
		updated, err := uc.Submit(ctx, "s1", store, domain.FormModeEdit, form)
		require.NoError(t, err)
		assert.Equal(t, "CTO", updated.Position)

		got, _ := store.Get(2)
		assert.Equal(t, "CTO", got.Position)
	})

	t.Run("Should report a missing profile on update", func(t *testing.T) {
		store := usecase.NewProfileStore(newLoadedCatalog(t))
		defer store.Close()
		_, err := usecase.NewAdminUsecase().Submit(ctx, "s1", store, domain.FormModeEdit, domain.Profile{ID: 99, ProfileInput: validInput("Ghost")})
		assert.Equal(t, http.StatusNotFound, appCode(t, err))
	})

	t.Run("Should reject a second submission while one is pending", func(t *testing.T) {
		committer := newGatedCommitter()
		catalog := usecase.NewCatalog(memory.NewSeedSource(memory.SampleProfiles(), 0), committer)
		require.NoError(t, catalog.Load(ctx))
		store := usecase.NewProfileStore(catalog)
		defer store.Close()
		uc := usecase.NewAdminUsecase()

		done := make(chan error, 1)
		go func() {
			_, err := uc.Submit(ctx, "s1", store, domain.FormModeAdd, domain.Profile{ProfileInput: validInput("First")})
			done <- err
		}()
		<-committer.started

		_, err := uc.Submit(ctx, "s1", store, domain.FormModeAdd, domain.Profile{ProfileInput: validInput("Second")})
		assert.Equal(t, http.StatusConflict, appCode(t, err))

		committer.Release()
		require.NoError(t, <-done)
		assert.Len(t, store.ListAll(), 7)

		// the flag is released once the first submission completes
		_, err = uc.Submit(ctx, "s1", store, domain.FormModeAdd, domain.Profile{ProfileInput: validInput("Third")})
		assert.NoError(t, err)
	})

	t.Run("Should leave the catalog untouched when the commit is cancelled", func(t *testing.T) {
		committer := newGatedCommitter()
		catalog := usecase.NewCatalog(memory.NewSeedSource(memory.SampleProfiles(), 0), committer)
		require.NoError(t, catalog.Load(ctx))
		store := usecase.NewProfileStore(catalog)
		defer store.Close()

		cctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := usecase.NewAdminUsecase().Submit(cctx, "s1", store, domain.FormModeAdd, domain.Profile{ProfileInput: validInput("Cancelled")})
			done <- err
		}()
		<-committer.started
		cancel()

		assert.Error(t, <-done)
		assert.Len(t, store.ListAll(), 6)
	})
}

func TestAdminForms(t *testing.T) {
	store := usecase.NewProfileStore(newLoadedCatalog(t))
	defer store.Close()
	uc := usecase.NewAdminUsecase()

	t.Run("Should start the add form with one empty interest", func(t *testing.T) {
		assert.Equal(t, []string{""}, uc.NewForm().Interests)
	})

	t.Run("Should load an existing profile for editing", func(t *testing.T) {
		form, err := uc.EditForm(store, 1)
		require.NoError(t, err)
		assert.Equal(t, "Emma Wilson", form.Name)
	})

	t.Run("Should report a missing profile", func(t *testing.T) {
		_, err := uc.EditForm(store, 99)
		require.Error(t, err)
		assert.Equal(t, "Profile not found", err.Error())
	})

	t.Run("Should delete and ignore unknown ids", func(t *testing.T) {
		require.NoError(t, uc.Delete(context.Background(), store, 6))
		assert.Len(t, store.ListAll(), 5)
		assert.NoError(t, uc.Delete(context.Background(), store, 6))
	})
}
