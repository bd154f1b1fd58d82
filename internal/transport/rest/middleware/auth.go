package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"practicecoach/internal/model"
)

type contextKey string

const IdentityKey contextKey = "identity"

// TokenValidator verifies bearer tokens. *service.AuthService satisfies it.
type TokenValidator interface {
	ValidateToken(token string) (*model.UserClaims, error)
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	auth TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(auth TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Identify resolves the caller from the Authorization header. A request
// without a token proceeds as a guest; an invalid token is rejected.
func (m *AuthMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			if r.Header.Get("Authorization") != "" {
				unauthorized(w, "malformed authorization header")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.auth.ValidateToken(token)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
	})
}

// WithIdentity stores the caller in ctx
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetIdentity extracts the caller from context. Missing means guest.
func GetIdentity(ctx context.Context) model.Identity {
	if v, ok := ctx.Value(IdentityKey).(model.Identity); ok {
		return v
	}
	return model.Guest()
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "kind": "unauthenticated"})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
