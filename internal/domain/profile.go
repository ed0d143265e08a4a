package domain

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"slices"
)

// Coordinates is a [longitude, latitude] pair.
type Coordinates [2]float64

func (c Coordinates) Longitude() float64 { return c[0] }
func (c Coordinates) Latitude() float64  { return c[1] }

// Valid reports whether both components are finite numbers.
func (c Coordinates) Valid() bool {
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

var ErrInvalidCoordinates = errors.New("coordinates must be a [longitude, latitude] pair")

// UnmarshalJSON rejects arrays that do not hold exactly two numbers.
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrInvalidCoordinates
	}
	if len(raw) != 2 {
		return ErrInvalidCoordinates
	}
	c[0], c[1] = raw[0], raw[1]
	return nil
}

type Contact struct {
	Email   string `json:"email" validate:"omitempty,simple_email"`
	Phone   string `json:"phone"`
	Website string `json:"website" validate:"omitempty,web_url"`
}

type SocialMedia struct {
	Twitter   string `json:"twitter"`
	LinkedIn  string `json:"linkedin"`
	Instagram string `json:"instagram"`
}

// ProfileInput is a profile as submitted through the admin form, before an id is assigned.
type ProfileInput struct {
	Name        string      `json:"name" validate:"not_blank"`
	Photo       string      `json:"photo" validate:"not_blank"`
	Description string      `json:"description" validate:"not_blank"`
	Address     string      `json:"address" validate:"not_blank"`
	Coordinates Coordinates `json:"coordinates" validate:"finite_coordinates"`
	Contact     Contact     `json:"contact"`
	Interests   []string    `json:"interests"`
	SocialMedia SocialMedia `json:"social_media"`
	Company     string      `json:"company"`
	Position    string      `json:"position"`
}

// Profile is a directory entry.
type Profile struct {
	ID int64 `json:"id"`
	ProfileInput
}

// Clone returns a deep copy so callers never alias store state.
func (p Profile) Clone() Profile {
	p.ProfileInput = p.ProfileInput.Clone()
	return p
}

func (in ProfileInput) Clone() ProfileInput {
	in.Interests = slices.Clone(in.Interests)
	return in
}

// FormInterests returns the interests as the admin form edits them: never empty.
func (in ProfileInput) FormInterests() []string {
	if len(in.Interests) == 0 {
		return []string{""}
	}
	return slices.Clone(in.Interests)
}

// CompactInterests drops blank interest entries left over from the form.
func (in ProfileInput) CompactInterests() ProfileInput {
	out := make([]string, 0, len(in.Interests))
	for _, interest := range in.Interests {
		if interest != "" {
			out = append(out, interest)
		}
	}
	if len(out) == 0 {
		out = nil
	}
	in.Interests = out
	return in
}

// MutationKind identifies a catalog change handed to a ProfileCommitter.
type MutationKind string

const (
	MutationAdd    MutationKind = "add"
	MutationUpdate MutationKind = "update"
	MutationRemove MutationKind = "remove"
)

type ProfileMutation struct {
	Kind    MutationKind
	Profile Profile
}

// ProfileSource performs the one-off initial load of the directory.
type ProfileSource interface {
	FetchProfiles(ctx context.Context) ([]Profile, error)
}

// ProfileCommitter acknowledges a mutation before the catalog applies it.
type ProfileCommitter interface {
	Commit(ctx context.Context, mutation ProfileMutation) error
}

// ProfileStore is the per-session view over the shared profile catalog.
type ProfileStore interface {
	Loading() bool
	ListAll() []Profile
	Get(id int64) (Profile, bool)
	SetSearchTerm(term string)
	SearchTerm() string
	Filtered() []Profile
	Add(ctx context.Context, in ProfileInput) (Profile, error)
	Update(ctx context.Context, p Profile) (Profile, error)
	Remove(ctx context.Context, id int64) error
	Select(p Profile)
	Selected() (Profile, bool)
	ClearSelection()
	Close()
}

// FormMode distinguishes the two admin form routes.
type FormMode string

const (
	FormModeAdd  FormMode = "add"
	FormModeEdit FormMode = "edit"
)

// AdminUsecase drives the admin form: loading, validating and submitting profiles.
type AdminUsecase interface {
	NewForm() ProfileInput
	EditForm(store ProfileStore, id int64) (Profile, error)
	Submit(ctx context.Context, sessionID string, store ProfileStore, mode FormMode, p Profile) (Profile, error)
	Delete(ctx context.Context, store ProfileStore, id int64) error
}
