// Package middleware provides the HTTP middleware chain.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Vukotije/audiotheca/internal/errors"
	"github.com/Vukotije/audiotheca/internal/logging"
	"github.com/Vukotije/audiotheca/internal/tokens"
)

// AuthMiddleware resolves bearer tokens into a context identity. A request
// without an Authorization header passes through anonymously; route handlers
// and services decide whether an identity is required. A present but invalid
// token is always rejected.
type AuthMiddleware struct {
	issuer *tokens.Issuer
	logger *logging.Logger
}

// NewAuthMiddleware creates an authentication middleware.
func NewAuthMiddleware(issuer *tokens.Issuer, logger *logging.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewDefault("auth")
	}
	return &AuthMiddleware{issuer: issuer, logger: logger}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondError(w, r, errors.Unauthorized("Invalid Authorization header format"))
			return
		}

		claims, err := m.issuer.Verify(parts[1])
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("Token validation failed")
			m.respondError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), logging.UserIDKey, claims.Subject)
		if claims.Role != "" {
			ctx = context.WithValue(ctx, logging.RoleKey, claims.Role)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("Authentication failed", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(serviceErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": serviceErr.Message})

	m.logger.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": serviceErr.HTTPStatus,
	}).Warn("Authentication failed")
}

// GetUserID extracts the authenticated user id from context.
func GetUserID(ctx context.Context) string {
	return logging.GetUserID(ctx)
}

// GetUserRole extracts the authenticated role from context.
func GetUserRole(ctx context.Context) string {
	return logging.GetRole(ctx)
}
