package usecase

import (
	"strings"

	"profile-mapper-backend/internal/domain"
)

// NormalizeSearchTerm lowercases and trims a raw search term.
func NormalizeSearchTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// MatchesProfile reports whether a normalized term is contained in any searchable field.
// An empty term matches every profile.
func MatchesProfile(p domain.Profile, term string) bool {
	if term == "" {
		return true
	}
	fields := []string{p.Name, p.Description, p.Address, p.Company, p.Position}
	for _, field := range fields {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	for _, interest := range p.Interests {
		if strings.Contains(strings.ToLower(interest), term) {
			return true
		}
	}
	return false
}

// FilterProfiles keeps the profiles matching term in their original order.
func FilterProfiles(profiles []domain.Profile, term string) []domain.Profile {
	term = NormalizeSearchTerm(term)
	out := make([]domain.Profile, 0, len(profiles))
	for _, p := range profiles {
		if MatchesProfile(p, term) {
			out = append(out, p)
		}
	}
	return out
}
