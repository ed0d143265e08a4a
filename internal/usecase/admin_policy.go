package usecase

import (
	"context"
	"strings"

	"profile-mapper-backend/internal/domain"
)

// AuthenticatedPolicy admits every signed-in user.
type AuthenticatedPolicy struct{}

func (AuthenticatedPolicy) IsAdmin(ctx context.Context, user domain.User) bool {
	return user.ID != ""
}

// AllowlistPolicy admits users whose email is on the list, ignoring case.
type AllowlistPolicy struct {
	emails map[string]struct{}
}

func NewAllowlistPolicy(emails []string) *AllowlistPolicy {
	p := &AllowlistPolicy{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			p.emails[e] = struct{}{}
		}
	}
	return p
}

func (p *AllowlistPolicy) IsAdmin(ctx context.Context, user domain.User) bool {
	_, ok := p.emails[strings.ToLower(strings.TrimSpace(user.Email))]
	return ok
}

// NewAdminPolicy maps ADMIN_POLICY to an implementation. Unknown names fall back to the allowlist.
func NewAdminPolicy(name string, emails []string) domain.AdminPolicy {
	if name == "authenticated" {
		return AuthenticatedPolicy{}
	}
	return NewAllowlistPolicy(emails)
}
