package validation

import "profile-mapper-backend/internal/domain"

// ValidateProfile maps a submitted profile to field errors. An empty map means the profile is valid.
func ValidateProfile(in domain.ProfileInput) map[string]string {
	return FormatFieldErrors(Default().Struct(in))
}
