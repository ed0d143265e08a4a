package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/pkg/apperror"
	"profile-mapper-backend/pkg/logger"
)

// SupabaseProvider talks to the Supabase GoTrue REST API.
type SupabaseProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewSupabaseProvider(baseURL, apiKey string) *SupabaseProvider {
	return &SupabaseProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type supabaseSession struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (s supabaseSession) toSession(now time.Time) *domain.Session {
	session := &domain.Session{
		AccessToken: s.AccessToken,
		User:        domain.User{ID: s.User.ID, Email: s.User.Email},
	}
	if s.ExpiresIn > 0 {
		session.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return session
}

// SignIn uses POST /auth/v1/token?grant_type=password
func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var out supabaseSession
	msg, err := p.post(ctx, "/auth/v1/token?grant_type=password", "", map[string]interface{}{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return nil, apperror.Unauthorized(msg)
	}
	return out.toSession(time.Now()), nil
}

// SignUp uses POST /auth/v1/signup. When the project requires email confirmation
// no session is returned and ErrConfirmationPending is reported.
func (p *SupabaseProvider) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	var out supabaseSession
	msg, err := p.post(ctx, "/auth/v1/signup", "", map[string]interface{}{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		return nil, apperror.BadRequest(msg)
	}
	if out.AccessToken == "" {
		return nil, domain.ErrConfirmationPending
	}
	return out.toSession(time.Now()), nil
}

// SignOut revokes the refresh tokens behind session.
func (p *SupabaseProvider) SignOut(ctx context.Context, session *domain.Session) error {
	if session == nil || session.AccessToken == "" {
		return nil
	}
	msg, err := p.post(ctx, "/auth/v1/logout", session.AccessToken, nil, nil)
	if err != nil {
		return err
	}
	if msg != "" {
		return apperror.ExternalService(fmt.Sprintf("Sign out failed: %s", msg), nil)
	}
	return nil
}

// providerError mirrors the error bodies GoTrue returns.
type providerError struct {
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
}

func (e providerError) message(status int) string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Error != "":
		return e.Error
	}
	return fmt.Sprintf("Request rejected with status %d", status)
}

// post sends body and decodes a 2xx response into out. Transport failures and
// 5xx responses are ExternalServiceErrors; a 4xx response yields its message.
func (p *SupabaseProvider) post(ctx context.Context, path, bearer string, body interface{}, out interface{}) (string, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return "", apperror.Internal(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, &buf)
	if err != nil {
		return "", apperror.Internal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Log.Error("Supabase request failed", "path", path, "error", err)
		return "", apperror.ExternalService("Authentication service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		logger.Log.Error("Supabase returned server error", "path", path, "status", resp.StatusCode)
		return "", apperror.ExternalService("Authentication service unavailable", nil)
	}

	if resp.StatusCode >= 400 {
		var errResp providerError
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.message(resp.StatusCode)
		logger.Log.Warn("Supabase rejected request", "path", path, "status", resp.StatusCode, "msg", msg)
		return msg, nil
	}

	if out != nil && resp.ContentLength != 0 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return "", apperror.ExternalService("Failed to parse authentication response", err)
		}
	}
	return "", nil
}
