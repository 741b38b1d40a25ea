// Package auth guards the management endpoints with JWT bearer tokens.
// Tokens are signed with HS256 and must carry an admin role claim.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Foodshareclub/foodshare-ops/internal/handler/http/respond"
)

type ctxKey string

const ctxSubject ctxKey = "subject"

// Subject returns the authenticated token subject, or "" outside an
// authenticated request.
func Subject(ctx context.Context) string {
	if sub, ok := ctx.Value(ctxSubject).(string); ok {
		return sub
	}
	return ""
}

// AdminOnly returns middleware that rejects requests without a valid admin
// bearer token. All methods are protected equally; there is no read-only
// bypass.
func AdminOnly(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, role, err := validateToken(r.Header.Get("Authorization"), secret)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if role != "admin" {
				respond.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxSubject, sub)))
		})
	}
}

func validateToken(authz string, secret []byte) (string, string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return "", "", errors.New("missing bearer token")
	}

	tok, err := jwt.Parse(strings.TrimPrefix(authz, prefix), func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return "", "", errors.New("invalid token")
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid claims")
	}
	if exp, ok := claims["exp"].(float64); !ok || int64(exp) < time.Now().Unix() {
		return "", "", errors.New("token expired")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return "", "", errors.New("invalid sub claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", "", errors.New("invalid role claim")
	}
	return sub, role, nil
}

// IssueToken signs a short-lived admin token. Used by operational tooling
// and tests.
func IssueToken(secret []byte, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
