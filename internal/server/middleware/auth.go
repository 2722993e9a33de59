// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const (
	// userIDKey is the context key for storing the authenticated user ID.
	userIDKey ContextKey = "userID"
	// roleKey is the context key for storing the authenticated user's role.
	roleKey ContextKey = "role"
)

// TokenValidator is an interface for validating JWT tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (Principal, error)
}

// Principal is the identity carried by a valid token.
type Principal interface {
	GetUserID() uuid.UUID
	GetRole() string
}

// AuthMiddleware creates middleware that validates JWT tokens and adds the
// user ID and role to the request context.
func AuthMiddleware(jwtService TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Parse Bearer token, case-insensitive prefix
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := jwtService.ValidateToken(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.GetUserID())
			ctx = context.WithValue(ctx, roleKey, claims.GetRole())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose authenticated role is not one of roles.
// It must run after AuthMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := GetRole(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !slices.Contains(roles, role) {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the authenticated user ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, error) {
	userID, ok := r.Context().Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("user ID not found in request context")
	}
	return userID, nil
}

// GetRole extracts the authenticated user's role from the request context.
func GetRole(r *http.Request) (string, error) {
	role, ok := r.Context().Value(roleKey).(string)
	if !ok || role == "" {
		return "", fmt.Errorf("role not found in request context")
	}
	return role, nil
}

// WithPrincipal returns ctx carrying userID and role, as AuthMiddleware
// would. Used by tests and internal callers.
func WithPrincipal(ctx context.Context, userID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
