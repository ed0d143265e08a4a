package usecase

import (
	"context"
	"net/url"
	"strings"

	"profile-mapper-backend/internal/domain"
)

const SignInPath = "/auth"

// RouteGuard decides whether a request for a protected route may proceed.
type RouteGuard struct {
	policy domain.AdminPolicy
}

func NewRouteGuard(policy domain.AdminPolicy) *RouteGuard {
	return &RouteGuard{policy: policy}
}

// Check evaluates gate for requestURI. adminOnly routes additionally consult the admin policy.
func (r *RouteGuard) Check(ctx context.Context, gate domain.AuthGate, requestURI string, adminOnly bool) domain.GuardDecision {
	switch gate.State() {
	case domain.AuthAuthenticating:
		return domain.GuardDecision{Outcome: domain.GuardLoading}
	case domain.AuthUnauthenticated:
		return domain.GuardDecision{
			Outcome:    domain.GuardRedirectSignIn,
			RedirectTo: SignInPath + "?from=" + url.QueryEscape(SafeRedirect(requestURI)),
		}
	}

	if adminOnly {
		session := gate.Session()
		if session == nil || !r.policy.IsAdmin(ctx, session.User) {
			return domain.GuardDecision{Outcome: domain.GuardRedirectHome, RedirectTo: "/"}
		}
	}
	return domain.GuardDecision{Outcome: domain.GuardAllow}
}

// IsAdmin reports the admin policy verdict for the gate's current user.
func (r *RouteGuard) IsAdmin(ctx context.Context, gate domain.AuthGate) bool {
	session := gate.Session()
	return session != nil && r.policy.IsAdmin(ctx, session.User)
}

// SafeRedirect keeps only local paths; anything else becomes "/".
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	if u.Path == SignInPath || strings.HasPrefix(u.Path, SignInPath+"/") {
		return "/"
	}
	return target
}
