package middleware

import (
	"net/http"
	"strings"

	"profile-mapper-backend/internal/delivery/http/response"
	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/internal/usecase"
	"profile-mapper-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookieName = "pm_session"
	clientSessionKey  = "ClientSession"
)

// SessionMiddleware attaches the caller's ClientSession, creating one (and its
// cookie) on first contact. A valid bearer token signs the session's gate in.
// Bearer requests without a known cookie get a request-scoped session that is
// never registered.
func SessionMiddleware(registry *usecase.SessionRegistry, verifier domain.TokenVerifier, secureCookie bool, maxAge int) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		bearer := strings.HasPrefix(authHeader, "Bearer ") && verifier != nil

		id, _ := c.Cookie(SessionCookieName)
		session, known := registry.Get(id)
		switch {
		case known:
		case bearer:
			session = registry.Ephemeral()
			defer session.Store.Close()
		default:
			session, _ = registry.Resolve(id)
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, session.ID, maxAge, "/", "", secureCookie, true)
		}

		if bearer {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			verified, err := verifier.Verify(c.Request.Context(), token)
			if err != nil {
				logger.Log.Info("Bearer token rejected", "error", err)
				response.Error(c, http.StatusUnauthorized, "Invalid token", nil)
				c.Abort()
				return
			}
			session.Gate.Restore(verified)
		}

		c.Set(clientSessionKey, session)
		c.Set(string(domain.KeySessionID), session.ID)
		if s := session.Gate.Session(); s != nil {
			c.Set(string(domain.KeyUserID), s.User.ID)
			c.Set(string(domain.KeyUserEmail), s.User.Email)
		}
		c.Next()
	}
}

// CurrentSession returns the session attached by SessionMiddleware.
func CurrentSession(c *gin.Context) *usecase.ClientSession {
	v, ok := c.Get(clientSessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*usecase.ClientSession)
	return s
}

// RequireAuth applies the route guard. While sign-in is in flight it answers
// 202 with a loading marker; otherwise it redirects as the guard decides.
func RequireAuth(guard *usecase.RouteGuard, adminOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if session == nil {
			response.Error(c, http.StatusInternalServerError, "Session unavailable", nil)
			c.Abort()
			return
		}

		decision := guard.Check(c.Request.Context(), session.Gate, c.Request.URL.RequestURI(), adminOnly)
		switch decision.Outcome {
		case domain.GuardLoading:
			response.Loading(c, http.StatusAccepted, "Checking authentication")
			c.Abort()
			return
		case domain.GuardRedirectSignIn, domain.GuardRedirectHome:
			c.Redirect(http.StatusFound, decision.RedirectTo)
			c.Abort()
			return
		}

		c.Set(string(domain.KeyIsAdmin), guard.IsAdmin(c.Request.Context(), session.Gate))
		c.Next()
	}
}
