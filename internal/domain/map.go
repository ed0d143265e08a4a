package domain

import "context"

// MapTokenKey is the fixed name the map access token is persisted under.
const MapTokenKey = "mapbox_token"

// MapMarker is the tuple handed to the map renderer for each profile.
type MapMarker struct {
	ID          int64       `json:"id"`
	Coordinates Coordinates `json:"coordinates"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
}

// MapBounds is the south-west / north-east box enclosing all markers.
type MapBounds struct {
	SouthWest Coordinates `json:"south_west"`
	NorthEast Coordinates `json:"north_east"`
	Padding   int         `json:"padding"`
}

type MapView struct {
	TokenRequired bool         `json:"token_required"`
	AccessToken   string       `json:"access_token,omitempty"`
	Style         string       `json:"style"`
	Markers       []MapMarker  `json:"markers"`
	Focus         *MapMarker   `json:"focus,omitempty"`
	Center        *Coordinates `json:"center,omitempty"`
	Zoom          float64      `json:"zoom"`
	Bounds        *MapBounds   `json:"bounds,omitempty"`
}

// MapTokenStore persists the map access token per owner.
type MapTokenStore interface {
	Get(ctx context.Context, owner string) (string, error)
	Set(ctx context.Context, owner, token string) error
	Clear(ctx context.Context, owner string) error
}

type MapUsecase interface {
	View(ctx context.Context, owner string, profiles []Profile, focus *Profile) (MapView, error)
	SaveToken(ctx context.Context, owner, token string) error
	ClearToken(ctx context.Context, owner string) error
	ReportError(ctx context.Context, owner, message string) (bool, error)
}
