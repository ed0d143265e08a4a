package memory

import (
	"context"
	"time"

	"profile-mapper-backend/internal/domain"
)

type seedSource struct {
	profiles []domain.Profile
	latency  time.Duration
}

// NewSeedSource serves a fixed profile list after latency, standing in for a
// remote directory API.
func NewSeedSource(profiles []domain.Profile, latency time.Duration) domain.ProfileSource {
	return &seedSource{profiles: profiles, latency: latency}
}

func (s *seedSource) FetchProfiles(ctx context.Context) ([]domain.Profile, error) {
	if err := wait(ctx, s.latency); err != nil {
		return nil, err
	}
	out := make([]domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	return out, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SampleProfiles is the built-in directory used when no database is configured.
func SampleProfiles() []domain.Profile {
	return []domain.Profile{
		{
			ID: 1,
			ProfileInput: domain.ProfileInput{
				Name:        "Emma Wilson",
				Photo:       "https://images.unsplash.com/photo-1494790108377-be9c29b29330?ixlib=rb-1.2.1&auto=format&fit=crop&w=256&q=80",
				Description: "UX designer specializing in user research and interface design.",
				Address:     "123 Tech Lane, San Francisco, CA",
				Coordinates: domain.Coordinates{-122.4194, 37.7749},
				Contact: domain.Contact{
					Email:   "emma.wilson@example.com",
					Phone:   "+1 (555) 123-4567",
					Website: "emmadesigns.example.com",
				},
				Interests: []string{"Design", "Photography", "Hiking"},
				SocialMedia: domain.SocialMedia{
					Twitter:   "@emmadesigns",
					LinkedIn:  "linkedin.com/in/emmawilson",
					Instagram: "@emma.creates",
				},
				Company:  "Design Forward Labs",
				Position: "Senior UX Designer",
			},
		},
		{
			ID: 2,
			ProfileInput: domain.ProfileInput{
				Name:        "Michael Chen",
				Photo:       "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?ixlib=rb-1.2.1&auto=format&fit=crop&w=256&q=80",
				Description: "Full stack developer with a passion for building scalable applications.",
				Address:     "456 Coding Blvd, Seattle, WA",
				Coordinates: domain.Coordinates{-122.3321, 47.6062},
				Contact: domain.Contact{
					Email:   "michael.chen@example.com",
					Phone:   "+1 (555) 987-6543",
					Website: "michaelcodes.example.com",
				},
				Interests: []string{"Programming", "AI", "Rock Climbing"},
				SocialMedia: domain.SocialMedia{
					Twitter:   "@michaelcodes",
					LinkedIn:  "linkedin.com/in/michaelchen",
					Instagram: "@michael.dev",
				},
				Company:  "TechStack Solutions",
				Position: "Lead Developer",
			},
		},
		{
			ID: 3,
			ProfileInput: domain.ProfileInput{
				Name:        "Sophia Rodriguez",
				Photo:       "https://images.unsplash.com/photo-1573496359142-b8d87734a5a2?ixlib=rb-1.2.1&auto=format&fit=crop&w=256&q=80",
				Description: "Marketing strategist with expertise in digital campaigns and brand growth.",
				Address:     "789 Market Street, New York, NY",
				Coordinates: domain.Coordinates{-74.0060, 40.7128},
				Contact: domain.Contact{
					Email:   "sophia.rodriguez@example.com",
					Phone:   "+1 (555) 765-4321",
					Website: "sophiamarketing.example.com",
				},
				Interests: []string{"Marketing", "Travel", "Cooking"},
				SocialMedia: domain.SocialMedia{
					Twitter:   "@sophiamarkets",
					LinkedIn:  "linkedin.com/in/sophiarodriguez",
					Instagram: "@sophia.markets",
				},
				Company:  "BrandBoost Agency",
				Position: "Marketing Director",
			},
		},
		{
			ID: 4,
			ProfileInput: domain.ProfileInput{
				Name:        "David Kim",
				Photo:       "https://images.unsplash.com/photo-1500648767791-00dcc994a43e?ixlib=rb-1.2.1&auto=format&fit=crop&w=256&q=80",
				Description: "Data scientist specialized in machine learning and predictive analytics.",
				Address:     "101 Data Drive, Austin, TX",
				Coordinates: domain.Coordinates{-97.7431, 30.2672},
				Contact: domain.Contact{
					Email:   "david.kim@example.com",
					Phone:   "+1 (555) 234-5678",
					Website: "davidkim.example.com",
				},
				Interests: []string{"Data Science", "Chess", "Running"},
				SocialMedia: domain.SocialMedia{
					Twitter:   "@davidanalytics",
					LinkedIn:  "linkedin.com/in/davidkim",
					Instagram: "@david.data",
				},
				Company:  "DataDriven Research",
				Position: "Chief Data Scientist",
			},
		},
		{
			ID: 5,
			ProfileInput: domain.ProfileInput{
				Name:        "Olivia Johnson",
				Photo:       "https://images.unsplash.com/photo-1489424731084-a5d8b219a5bb?ixlib=rb-1.2.1&auto=format&fit=crop&w=256&q=80",
				Description: "Product manager focused on creating innovative solutions that solve real problems.",
				Address:     "202 Innovation Way, Boston, MA",
				Coordinates: domain.Coordinates{-71.0589, 42.3601},
				Contact: domain.Contact{
					Email:   "olivia.johnson@example.com",
					Phone:   "+1 (555) 876-5432",
					Website: "oliviapm.example.com",
				},
				Interests: []string{"Product Strategy", "Yoga", "Reading"},
				SocialMedia: domain.SocialMedia{
					Twitter:   "@oliviaproducts",
					LinkedIn:  "linkedin.com/in/oliviajohnson",
					Instagram: "@olivia.creates",
				},
				Company:  "NextGen Products",
				Position: "Senior Product Manager",
			},
		},
		{
			ID: 6,
			ProfileInput: domain.ProfileInput{
				Name:        "James Wilson",
				Photo:       "https://images.unsplash.com/photo-1506794778202-cad84cf45f1d?ixlib=rb-1.2.1&auto=format&fit=crop&w=256&q=80",
				Description: "Financial analyst with a strong background in investment strategy and market trends.",
				Address:     "303 Finance Court, Chicago, IL",
				Coordinates: domain.Coordinates{-87.6298, 41.8781},
				Contact: domain.Contact{
					Email:   "james.wilson@example.com",
					Phone:   "+1 (555) 345-6789",
					Website: "jameswilson.example.com",
				},
				Interests: []string{"Finance", "Golf", "History"},
				SocialMedia: domain.SocialMedia{
					Twitter:   "@jamesfinance",
					LinkedIn:  "linkedin.com/in/jameswilson",
					Instagram: "@james.invests",
				},
				Company:  "Future Investments Inc.",
				Position: "Investment Strategist",
			},
		},
	}
}
