package v1

import (
	"errors"
	"net/http"

	"profile-mapper-backend/internal/delivery/http/middleware"
	"profile-mapper-backend/internal/delivery/http/response"
	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/internal/usecase"
	"profile-mapper-backend/pkg/apperror"
	"profile-mapper-backend/pkg/logger"
	"profile-mapper-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	guard   *usecase.RouteGuard
	tracker *security.LoginTracker
	audit   *security.AuditLogger
}

// NewAuthHandler registers the sign-in routes. tracker and audit may be nil.
func NewAuthHandler(r gin.IRouter, guard *usecase.RouteGuard, tracker *security.LoginTracker, audit *security.AuditLogger) {
	handler := &AuthHandler{guard: guard, tracker: tracker, audit: audit}

	auth := r.Group("/auth")
	{
		auth.GET("", handler.Page)
		auth.POST("/sign-in", handler.SignIn)
		auth.POST("/sign-up", handler.SignUp)
		auth.POST("/sign-out", handler.SignOut)
		auth.GET("/session", handler.Session)
	}
}

// CredentialsRequest is left unvalidated by binding: the gate reports missing fields itself.
type CredentialsRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	From     string `json:"from" form:"from"`
}

type SessionResponse struct {
	State   domain.AuthState `json:"state"`
	User    *domain.User     `json:"user,omitempty"`
	IsAdmin bool             `json:"is_admin"`
	Error   string           `json:"error,omitempty"`
	From    string           `json:"from,omitempty"`
}

// Page godoc
// @Summary      Sign-in page state
// @Description  Redirects home when already signed in; otherwise returns the gate state and the page to return to
// @Tags         auth
// @Produce      json
// @Param        from  query     string  false  "Path to return to after sign-in"
// @Success      200   {object}  response.Response
// @Success      302
// @Router       /auth [get]
func (h *AuthHandler) Page(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if session.Gate.State() == domain.AuthAuthenticated {
		c.Redirect(http.StatusFound, "/")
		return
	}
	resp := h.sessionResponse(c, session)
	resp.From = usecase.SafeRedirect(c.Query("from"))
	response.Success(c, http.StatusOK, "Sign in required", resp)
}

// SignIn godoc
// @Summary      Sign in
// @Description  Signs the session in with email and password and returns where to go next
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      CredentialsRequest  true  "Credentials"
// @Success      200          {object}  response.Response
// @Failure      400          {object}  response.Response
// @Failure      401          {object}  response.Response
// @Failure      429          {object}  response.Response
// @Failure      502          {object}  response.Response
// @Router       /auth/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()
	requestID := c.GetString("RequestID")

	if h.tracker.Enabled() && req.Email != "" {
		blocked, err := h.tracker.IsBlocked(ctx, req.Email, ip)
		if err != nil {
			logger.Log.Warn("Sign-in lockout check failed", "error", err)
		}
		if blocked {
			h.audit.Log(security.Event{Type: security.EventSignInBlocked, Email: req.Email, IP: ip, RequestID: requestID})
			c.Error(errTooManyAttempts)
			return
		}
	}

	session := middleware.CurrentSession(c)
	signedIn, err := session.Gate.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if isCredentialFailure(err) {
			blocked, _, trackErr := h.tracker.RecordFailedAttempt(ctx, req.Email, ip, requestID)
			if trackErr != nil {
				logger.Log.Warn("Failed to record sign-in attempt", "error", trackErr)
			}
			if blocked {
				c.Error(errTooManyAttempts)
				return
			}
		}
		c.Error(authError(err))
		return
	}

	if err := h.tracker.ClearAttempts(ctx, req.Email, ip); err != nil {
		logger.Log.Warn("Failed to clear sign-in attempts", "error", err)
	}
	h.audit.Log(security.Event{Type: security.EventSignInSuccess, UserID: signedIn.User.ID, IP: ip, RequestID: requestID})

	response.Success(c, http.StatusOK, "Signed in", signedInPayload(signedIn, h.redirectTarget(c, req.From)))
}

// SignUp godoc
// @Summary      Create an account
// @Description  Registers with the identity provider. When email confirmation is required no session is started and 202 is returned.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      CredentialsRequest  true  "Credentials"
// @Success      201          {object}  response.Response
// @Success      202          {object}  response.Response
// @Failure      400          {object}  response.Response
// @Failure      502          {object}  response.Response
// @Router       /auth/sign-up [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	session := middleware.CurrentSession(c)
	signedIn, err := session.Gate.SignUp(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, domain.ErrConfirmationPending) {
		response.Success(c, http.StatusAccepted, err.Error(), gin.H{"confirmation_required": true})
		return
	}
	if err != nil {
		c.Error(authError(err))
		return
	}

	response.Success(c, http.StatusCreated, "Account created", signedInPayload(signedIn, h.redirectTarget(c, req.From)))
}

// SignOut godoc
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/sign-out [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	middleware.CurrentSession(c).Gate.SignOut(c.Request.Context())
	response.Success(c, http.StatusOK, "Signed out", gin.H{"redirect_to": usecase.SignInPath})
}

// Session godoc
// @Summary      Current session
// @Description  Returns the gate state, the signed-in user and whether the admin policy admits them
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=SessionResponse}
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	response.Success(c, http.StatusOK, "Session", h.sessionResponse(c, middleware.CurrentSession(c)))
}

func (h *AuthHandler) sessionResponse(c *gin.Context, session *usecase.ClientSession) SessionResponse {
	resp := SessionResponse{State: session.Gate.State()}
	if s := session.Gate.Session(); s != nil {
		user := s.User
		resp.User = &user
		resp.IsAdmin = h.guard.IsAdmin(c.Request.Context(), session.Gate)
	}
	if err := session.Gate.LastError(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// redirectTarget prefers the body's from, then the query's, then "/".
func (h *AuthHandler) redirectTarget(c *gin.Context, from string) string {
	if from == "" {
		from = c.Query("from")
	}
	return usecase.SafeRedirect(from)
}

// signedInPayload also hands out the access token for clients that prefer bearer auth over the cookie.
func signedInPayload(s *domain.Session, redirectTo string) gin.H {
	return gin.H{
		"redirect_to":  redirectTo,
		"user":         s.User,
		"access_token": s.AccessToken,
		"expires_at":   s.ExpiresAt,
	}
}

var errTooManyAttempts = apperror.New(http.StatusTooManyRequests, "Too many failed sign-in attempts. Please try again later.", nil)

func isCredentialFailure(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.Code == http.StatusUnauthorized
}

func authError(err error) error {
	if errors.Is(err, domain.ErrMissingCredentials) {
		return apperror.BadRequest(err.Error())
	}
	return err
}
