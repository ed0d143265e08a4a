package auth

import (
	"fmt"

	"profile-mapper-backend/config"
	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/internal/repository/memory"
	"profile-mapper-backend/pkg/logger"
)

// Bundle is the identity provider together with the verifier for the tokens it issues.
type Bundle struct {
	Provider domain.IdentityProvider
	Verifier *Verifier
	Name     string
}

// NewFromConfig picks Supabase when SUPABASE_URL is set and the local provider otherwise.
func NewFromConfig(cfg *config.Config) (*Bundle, error) {
	if cfg.UsesSupabase() {
		var keys *KeySet
		if cfg.SupabaseJWTSecret == "" {
			keys = NewKeySet(cfg.SupabaseUrl + "/auth/v1/.well-known/jwks.json")
		}
		logger.Log.Info("Using Supabase identity provider", "url", cfg.SupabaseUrl, "jwks", keys != nil)
		return &Bundle{
			Provider: NewSupabaseProvider(cfg.SupabaseUrl, cfg.SupabaseKey),
			Verifier: NewVerifier([]byte(cfg.SupabaseJWTSecret), keys),
			Name:     "supabase",
		}, nil
	}

	creds, err := ParseLocalUsers(cfg.LocalAuthUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse local users: %w", err)
	}
	provider := NewLocalProvider(memory.NewCredentialRepository(creds...), cfg.AuthJWTSecret, cfg.AuthSessionTTL)
	logger.Log.Info("Using local identity provider", "seeded_users", len(creds))
	return &Bundle{
		Provider: provider,
		Verifier: NewVerifier(provider.Secret(), nil),
		Name:     "local",
	}, nil
}
