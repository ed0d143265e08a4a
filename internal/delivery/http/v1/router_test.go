package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	v1 "profile-mapper-backend/internal/delivery/http/v1"
	"profile-mapper-backend/internal/repository/memory"
	"profile-mapper-backend/internal/usecase"
	"profile-mapper-backend/pkg/auth"
	"profile-mapper-backend/pkg/security"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail  = "admin@example.com"
	viewerEmail = "viewer@example.com"
	password    = "secret"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// client carries the session cookie between requests like a browser would.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (c *client) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) signIn(email string) {
	c.t.Helper()
	w := c.do(http.MethodPost, "/auth/sign-in", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func newTestRouter(t *testing.T, opts ...func(*v1.RouterDeps)) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	creds, err := auth.ParseLocalUsers(adminEmail + ":" + string(hash) + "," + viewerEmail + ":" + string(hash))
	require.NoError(t, err)
	provider := auth.NewLocalProvider(memory.NewCredentialRepository(creds...), "test-secret", time.Hour)

	catalog := usecase.NewCatalog(memory.NewSeedSource(memory.SampleProfiles(), 0), memory.NewDelayedCommitter(0))
	require.NoError(t, catalog.Load(context.Background()))

	sessions := usecase.NewSessionRegistry(catalog, provider, time.Hour)
	deps := v1.RouterDeps{
		Sessions:    sessions,
		Guard:       usecase.NewRouteGuard(usecase.NewAllowlistPolicy([]string{adminEmail})),
		Verifier:    auth.NewVerifier(provider.Secret(), nil),
		AdminUC:     usecase.NewAdminUsecase(),
		MapUC:       usecase.NewMapUsecase(memory.NewMapTokenStore()),
		HealthUC:    usecase.NewHealthUsecase(catalog, nil, nil),
		CORSOrigins: []string{"http://localhost:5173"},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return v1.NewRouter(deps)
}

func newClient(t *testing.T) *client {
	return &client{t: t, handler: newTestRouter(t), cookies: map[string]*http.Cookie{}}
}

func TestAdminRedirectRoundTrip(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodGet, "/admin", nil)
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth", loc.Path)
	assert.Equal(t, "/admin", loc.Query().Get("from"))

	w = c.do(http.MethodPost, "/auth/sign-in?from="+url.QueryEscape("/admin"), map[string]string{"email": adminEmail, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		RedirectTo string `json:"redirect_to"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "/admin", data.RedirectTo)

	w = c.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodGet, "/auth", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestSignInErrors(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodPost, "/auth/sign-in", map[string]string{"email": adminEmail})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter both email and password", decode(t, w).Message)

	w = c.do(http.MethodPost, "/auth/sign-in", map[string]string{"email": adminEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodPost, "/auth/sign-in?from="+url.QueryEscape("https://evil.example"), map[string]string{"email": adminEmail, "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"redirect_to":"/"`)
}

func TestNonAdminIsSentHome(t *testing.T) {
	c := newClient(t)
	c.signIn(viewerEmail)

	w := c.do(http.MethodGet, "/admin/add", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = c.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDirectorySearch(t *testing.T) {
	c := newClient(t)
	c.signIn(viewerEmail)

	var view v1.DirectoryView
	w := c.do(http.MethodGet, "/?q=design", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	require.Len(t, view.Profiles, 1)
	assert.Equal(t, "Emma Wilson", view.Profiles[0].Name)
	assert.Equal(t, 6, view.Total)

	// the term sticks to the session
	w = c.do(http.MethodGet, "/", nil)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, "design", view.SearchTerm)

	w = c.do(http.MethodPut, "/search", map[string]string{"term": "zzz"})
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Empty(t, view.Profiles)
}

func TestProfileDetail(t *testing.T) {
	c := newClient(t)
	c.signIn(viewerEmail)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/profile/2", nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/profile/99", nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/profile/abc", nil).Code)
}

func TestAdminForm(t *testing.T) {
	c := newClient(t)
	c.signIn(adminEmail)

	profile := map[string]interface{}{
		"name":        "Nina Patel",
		"photo":       "https://example.com/nina.jpg",
		"description": "Platform engineer",
		"address":     "1 Main St",
		"coordinates": []float64{-73.98, 40.74},
		"interests":   []string{"Go", ""},
		"contact":     map[string]string{"email": "nina@example.com"},
	}

	w := c.do(http.MethodPost, "/admin/add", profile)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, string(decode(t, w).Data), `"id":7`)

	profile["contact"] = map[string]string{"email": "broken"}
	profile["name"] = ""
	w = c.do(http.MethodPost, "/admin/add", profile)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(decode(t, w).Error, &fields))
	assert.Equal(t, "Name is required", fields["name"])
	assert.Equal(t, "Invalid email format", fields["contact.email"])

	profile["name"] = "Nina Patel"
	profile["contact"] = map[string]string{}
	profile["coordinates"] = []float64{1}
	w = c.do(http.MethodPost, "/admin/add", profile)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, string(decode(t, w).Error), "Valid coordinates are required")

	w = c.do(http.MethodGet, "/admin/edit/99", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin?error="+url.QueryEscape("Profile not found"), w.Header().Get("Location"))

	w = c.do(http.MethodGet, "/admin/edit/7", nil)
	require.Equal(t, http.StatusOK, w.Code)

	profile["coordinates"] = []float64{-73.98, 40.74}
	profile["position"] = "Staff Engineer"
	w = c.do(http.MethodPut, "/admin/edit/7", profile)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(decode(t, w).Data), "Staff Engineer")

	assert.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/admin/profiles/7", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/admin/profiles/7", nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/profile/7", nil).Code)
}

func TestMapFlow(t *testing.T) {
	c := newClient(t)
	c.signIn(viewerEmail)

	w := c.do(http.MethodGet, "/map", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"token_required":true`)

	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/map/token", map[string]string{"token": "pk.test"}).Code)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/select/3", nil).Code)
	w = c.do(http.MethodGet, "/map", nil)
	var view struct {
		Zoom    float64 `json:"zoom"`
		Markers []struct {
			ID int64 `json:"id"`
		} `json:"markers"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, float64(14), view.Zoom)
	require.Len(t, view.Markers, 1)
	assert.Equal(t, int64(3), view.Markers[0].ID)

	require.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/select", nil).Code)
	w = c.do(http.MethodGet, "/map", nil)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Len(t, view.Markers, 6)

	w = c.do(http.MethodPost, "/map/errors", map[string]string{"message": "401 Unauthorized"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, string(decode(t, w).Error), `"token_cleared":true`)

	w = c.do(http.MethodGet, "/map", nil)
	assert.Contains(t, string(decode(t, w).Data), `"token_required":true`)
}

func TestSignOutRevokesAccess(t *testing.T) {
	c := newClient(t)
	c.signIn(viewerEmail)
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/", nil).Code)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/sign-out", nil).Code)
	assert.Equal(t, http.StatusFound, c.do(http.MethodGet, "/", nil).Code)
}

func TestBearerToken(t *testing.T) {
	handler := newTestRouter(t)
	c := &client{t: t, handler: handler, cookies: map[string]*http.Cookie{}}
	w := c.do(http.MethodPost, "/auth/sign-in", map[string]string{"email": viewerEmail, "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	require.NotEmpty(t, data.AccessToken)

	// no cookie: the token alone signs the request in
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+data.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, bad)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotFoundAndHealth(t *testing.T) {
	c := newClient(t)
	w := c.do(http.MethodGet, "/no/such/page", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Page not found", decode(t, w).Message)

	w = c.do(http.MethodGet, "/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"profiles":"loaded"`)
}

func TestSignInLockout(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	handler := newTestRouter(t, func(d *v1.RouterDeps) {
		d.LoginTracker = security.NewLoginTracker(security.LoginTrackerConfig{MaxAttempts: 2, AttemptWindow: time.Minute, BlockDuration: time.Minute}, rdb, nil)
	})
	c := &client{t: t, handler: handler, cookies: map[string]*http.Cookie{}}
	wrong := map[string]string{"email": viewerEmail, "password": "nope"}

	w := c.do(http.MethodPost, "/auth/sign-in", wrong)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodPost, "/auth/sign-in", wrong)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Blocked even with the right password until the block expires.
	w = c.do(http.MethodPost, "/auth/sign-in", map[string]string{"email": viewerEmail, "password": password})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	mr.FastForward(2 * time.Minute)
	c.signIn(viewerEmail)
}
