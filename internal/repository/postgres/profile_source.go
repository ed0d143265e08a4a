package postgres

import (
	"context"
	"fmt"

	"profile-mapper-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type profileSource struct {
	db *pgxpool.Pool
}

// NewProfileSource reads the initial directory from the profiles table.
// It is read-only: mutations made through the catalog are not written back.
func NewProfileSource(db *pgxpool.Pool) domain.ProfileSource {
	return &profileSource{db: db}
}

// FetchProfiles loads every profile in id order
func (r *profileSource) FetchProfiles(ctx context.Context) ([]domain.Profile, error) {
	query := `
		SELECT id, name, photo, description, address, longitude, latitude,
		       COALESCE(email, ''), COALESCE(phone, ''), COALESCE(website, ''),
		       interests,
		       COALESCE(twitter, ''), COALESCE(linkedin, ''), COALESCE(instagram, ''),
		       COALESCE(company, ''), COALESCE(position, '')
		FROM profiles
		ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var p domain.Profile
		var interests []string
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Photo, &p.Description, &p.Address,
			&p.Coordinates[0], &p.Coordinates[1],
			&p.Contact.Email, &p.Contact.Phone, &p.Contact.Website,
			pq.Array(&interests),
			&p.SocialMedia.Twitter, &p.SocialMedia.LinkedIn, &p.SocialMedia.Instagram,
			&p.Company, &p.Position,
		); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.Interests = interests
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}
