// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/models"
)

type userKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user stored by RequireAuth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey{}).(*models.User)
	return u, ok && u != nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth rejects requests without a valid bearer token. The token's
// user is reloaded from the database so deleted accounts and role changes
// take effect immediately.
func RequireAuth(tokens *auth.TokenManager, conn *db.DB) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				ErrorResponse(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			user, err := conn.UserByID(r.Context(), claims.UserID())
			if errors.Is(err, db.ErrNotFound) {
				ErrorResponse(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			if err != nil {
				slog.Error("failed to load user", "error", err, "user_id", claims.UserID())
				ErrorResponse(w, http.StatusInternalServerError, "Failed to load user")
				return
			}

			next(w, r.WithContext(WithUser(r.Context(), user)))
		}
	}
}

// RequireRole lets through users holding one of roles. Admins always pass.
// It must run after RequireAuth.
func RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if !auth.RoleAllowed(user.Role, roles...) {
				ErrorResponse(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next(w, r)
		}
	}
}
