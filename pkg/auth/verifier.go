package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"profile-mapper-backend/internal/domain"
	"profile-mapper-backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates bearer tokens: HS256 with the shared secret, RS256 via JWKS.
type Verifier struct {
	secret []byte
	keys   *KeySet
}

// NewVerifier accepts either mechanism being absent; tokens using it are then rejected.
func NewVerifier(secret []byte, keys *KeySet) *Verifier {
	return &Verifier{secret: secret, keys: keys}
}

func (v *Verifier) Verify(ctx context.Context, tokenString string) (*domain.Session, error) {
	if tokenString == "" {
		return nil, apperror.Unauthorized("Authorization token required")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if len(v.secret) == 0 {
				return nil, errors.New("HS256 token received but no signing secret is configured")
			}
			return v.secret, nil
		case *jwt.SigningMethodRSA:
			if v.keys == nil {
				return nil, errors.New("RS256 token received but no JWKS is configured")
			}
			return v.keys.Keyfunc(ctx)(token)
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
	})
	if err != nil || !token.Valid {
		return nil, apperror.New(http.StatusUnauthorized, "Invalid token", err)
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, apperror.Unauthorized("Invalid claims")
	}
	email, _ := claims["email"].(string)

	session := &domain.Session{
		AccessToken: tokenString,
		User:        domain.User{ID: sub, Email: email},
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session, nil
}

// issueToken signs an HS256 session token in the same claim layout Supabase uses.
func issueToken(secret []byte, user domain.User, now time.Time, ttl time.Duration) (*domain.Session, error) {
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"aud":   "authenticated",
		"role":  "authenticated",
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return nil, err
	}
	return &domain.Session{AccessToken: signed, ExpiresAt: expiresAt, User: user}, nil
}
