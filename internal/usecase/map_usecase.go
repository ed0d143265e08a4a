package usecase

import (
	"context"
	"strings"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/pkg/apperror"
	"profile-mapper-backend/pkg/logger"
)

const (
	MapStyle         = "mapbox://styles/mapbox/streets-v11"
	MapFocusZoom     = 14
	MapDefaultZoom   = 12
	MapBoundsPadding = 50
)

type mapUsecase struct {
	tokens domain.MapTokenStore
}

func NewMapUsecase(tokens domain.MapTokenStore) domain.MapUsecase {
	return &mapUsecase{tokens: tokens}
}

// View builds the renderer input. Without a stored token it returns only the
// prompt; with a focal profile it shows that single marker up close, otherwise
// all profiles framed by their bounding box.
func (u *mapUsecase) View(ctx context.Context, owner string, profiles []domain.Profile, focus *domain.Profile) (domain.MapView, error) {
	token, err := u.tokens.Get(ctx, owner)
	if err != nil {
		return domain.MapView{}, apperror.Internal(err)
	}

	view := domain.MapView{Style: MapStyle, Zoom: MapDefaultZoom, Markers: []domain.MapMarker{}}
	if token == "" {
		view.TokenRequired = true
		return view, nil
	}
	view.AccessToken = token

	if focus != nil {
		marker := toMarker(*focus)
		center := focus.Coordinates
		view.Markers = []domain.MapMarker{marker}
		view.Focus = &marker
		view.Center = &center
		view.Zoom = MapFocusZoom
		return view, nil
	}

	for _, p := range profiles {
		if p.Coordinates.Valid() {
			view.Markers = append(view.Markers, toMarker(p))
		}
	}
	view.Bounds = boundsOf(view.Markers)
	return view, nil
}

func (u *mapUsecase) SaveToken(ctx context.Context, owner, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperror.Validation(map[string]string{"token": "Map access token is required"})
	}
	if err := u.tokens.Set(ctx, owner, token); err != nil {
		return apperror.Internal(err)
	}
	logger.Log.Info("Map token saved", "owner", owner)
	return nil
}

func (u *mapUsecase) ClearToken(ctx context.Context, owner string) error {
	if err := u.tokens.Clear(ctx, owner); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// ReportError handles an error raised by the map renderer. Authorization
// failures clear the stored token so the prompt is shown again; it reports
// whether that happened.
func (u *mapUsecase) ReportError(ctx context.Context, owner, message string) (bool, error) {
	if !IsMapAuthorizationError(message) {
		logger.Log.Warn("Map renderer error", "owner", owner, "message", message)
		return false, nil
	}
	logger.Log.Warn("Map token rejected, clearing", "owner", owner, "message", message)
	if err := u.ClearToken(ctx, owner); err != nil {
		return false, err
	}
	return true, apperror.AuthorizationFailure("Map access token was rejected. Please enter a valid token.")
}

func IsMapAuthorizationError(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "unauthorized") || strings.Contains(lower, "401")
}

func toMarker(p domain.Profile) domain.MapMarker {
	return domain.MapMarker{ID: p.ID, Coordinates: p.Coordinates, Name: p.Name, Address: p.Address}
}

func boundsOf(markers []domain.MapMarker) *domain.MapBounds {
	if len(markers) == 0 {
		return nil
	}
	sw, ne := markers[0].Coordinates, markers[0].Coordinates
	for _, m := range markers[1:] {
		sw[0] = min(sw[0], m.Coordinates[0])
		sw[1] = min(sw[1], m.Coordinates[1])
		ne[0] = max(ne[0], m.Coordinates[0])
		ne[1] = max(ne[1], m.Coordinates[1])
	}
	return &domain.MapBounds{SouthWest: sw, NorthEast: ne, Padding: MapBoundsPadding}
}
